// Package session owns the client-side view of "who is logged in".  The
// Controller restores a persisted session at startup, performs login and
// logout through an Authenticator and logs the user out after a period
// without interaction.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/acrux-trazabilidad/internal/access"
	"github.com/iliyamo/acrux-trazabilidad/internal/logger"
	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

// DefaultIdleTimeout is how long a session survives without activity.
const DefaultIdleTimeout = 15 * time.Minute

// ErrClosed is returned by Login once the controller has been closed.
var ErrClosed = errors.New("session: controller closed")

// FallbackLoginMessage is reported when a login failure carries no
// server-provided message.
const FallbackLoginMessage = "Error al iniciar sesión"

// State is the lifecycle state of a Controller.
type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Authenticator exchanges credentials for a token and user record.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (token string, user model.UserRecord, err error)
}

// LoginError is returned by Controller.Login.  Error returns the message
// meant for the user; Err keeps the underlying cause.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// Option configures a Controller.
type Option func(*Controller)

// WithIdleTimeout overrides DefaultIdleTimeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clk Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithLogger sets the logger used for best-effort storage failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller is the single source of truth for the current session.  It
// is safe for concurrent use; observers registered with OnChange run
// outside the internal lock.
type Controller struct {
	store    Store
	auth     Authenticator
	activity ActivitySource
	clock    Clock
	timeout  time.Duration
	log      logrus.FieldLogger

	mu        sync.Mutex
	state     State
	sess      Session
	timer     Timer
	gen       uint64 // bumped on every arm/disarm; stale timer callbacks compare against it
	unsubs    []func()
	observers []func(State)
	closed    bool
}

// NewController returns a Controller in StateLoading.  Call Start to
// restore the persisted session.
func NewController(store Store, auth Authenticator, activity ActivitySource, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		auth:     auth,
		activity: activity,
		clock:    RealClock(),
		timeout:  DefaultIdleTimeout,
		log:      logger.Logger,
		state:    StateLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to be called after every state transition,
// including the automatic logout on inactivity.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Start restores the persisted session.  It always leaves StateLoading;
// calling it again is a no-op.  A closed controller starts unauthenticated.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.state != StateLoading {
		c.mu.Unlock()
		return
	}
	if c.closed {
		c.state = StateUnauthenticated
		obs := c.observersLocked()
		c.mu.Unlock()
		notify(obs, StateUnauthenticated)
		return
	}
	sess, err := c.store.Load()
	if err != nil {
		c.log.WithError(err).Warn("session: could not read stored session")
		sess = Session{}
	}
	if sess.Complete() {
		c.sess = sess
		c.state = StateAuthenticated
		c.subscribeLocked()
		c.armLocked()
	} else {
		c.state = StateUnauthenticated
	}
	st, obs := c.state, c.observersLocked()
	c.mu.Unlock()
	notify(obs, st)
}

// Login authenticates with the collaborator.  On failure the state is
// left untouched and a *LoginError is returned.  After Close it returns
// ErrClosed without calling the collaborator.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if c.isClosed() {
		return ErrClosed
	}
	token, user, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return &LoginError{Message: loginMessage(err), Err: err}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.sess = Session{User: &user, Token: token}
	if err := c.store.Save(c.sess); err != nil {
		c.log.WithError(err).Warn("session: could not persist session")
	}
	c.state = StateAuthenticated
	c.subscribeLocked()
	c.armLocked()
	obs := c.observersLocked()
	c.mu.Unlock()
	notify(obs, StateAuthenticated)
	return nil
}

// Logout clears the stored session, cancels the inactivity deadline and
// removes every activity listener.  Calling it while unauthenticated
// only clears timer state.
func (c *Controller) Logout() {
	c.mu.Lock()
	changed := c.logoutLocked()
	obs := c.observersLocked()
	c.mu.Unlock()
	if changed {
		notify(obs, StateUnauthenticated)
	}
}

// Close tears the controller down: the timer is cancelled and all
// listeners are removed.  The stored session is kept.  Close is terminal;
// later logins fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.disarmLocked()
	c.unsubscribeLocked()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the logged-in user, if any.
func (c *Controller) User() (model.UserRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.User == nil {
		return model.UserRecord{}, false
	}
	return *c.sess.User, true
}

// Token returns the current bearer token or "".
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Token
}

// Status returns the guard inputs derived from the current state.
func (c *Controller) Status() access.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := access.Status{
		Loading:       c.state == StateLoading,
		Authenticated: c.state == StateAuthenticated,
	}
	if c.sess.User != nil {
		st.Role = c.sess.User.Rol
	}
	return st
}

// touch is the activity callback.
func (c *Controller) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAuthenticated || c.closed {
		return
	}
	c.armLocked()
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateAuthenticated {
		c.mu.Unlock()
		return
	}
	c.log.Info("session: logged out after inactivity")
	changed := c.logoutLocked()
	obs := c.observersLocked()
	c.mu.Unlock()
	if changed {
		notify(obs, StateUnauthenticated)
	}
}

func (c *Controller) logoutLocked() bool {
	c.disarmLocked()
	c.unsubscribeLocked()
	if c.state == StateUnauthenticated {
		return false
	}
	if err := c.store.Clear(); err != nil {
		c.log.WithError(err).Warn("session: could not clear stored session")
	}
	c.sess = Session{}
	c.state = StateUnauthenticated
	return true
}

// armLocked replaces any pending deadline with one timeout from now.
func (c *Controller) armLocked() {
	if c.closed {
		return
	}
	c.disarmLocked()
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.timeout, func() { c.expire(gen) })
}

func (c *Controller) disarmLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

// subscribeLocked registers one listener per qualifying event kind.  It
// does nothing when listeners are already registered.
func (c *Controller) subscribeLocked() {
	if c.activity == nil || c.closed || len(c.unsubs) > 0 {
		return
	}
	for _, kind := range QualifyingEvents {
		c.unsubs = append(c.unsubs, c.activity.Subscribe(kind, c.touch))
	}
}

func (c *Controller) unsubscribeLocked() {
	for _, u := range c.unsubs {
		u()
	}
	c.unsubs = nil
}

func (c *Controller) observersLocked() []func(State) {
	out := make([]func(State), len(c.observers))
	copy(out, c.observers)
	return out
}

func notify(obs []func(State), st State) {
	for _, fn := range obs {
		fn(st)
	}
}

// userMessager is implemented by collaborator errors that carry a
// message from the server.
type userMessager interface {
	UserMessage() string
}

func loginMessage(err error) string {
	var m userMessager
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}
	return FallbackLoginMessage
}
