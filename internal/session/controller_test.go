package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/acrux-trazabilidad/internal/access"
	"github.com/iliyamo/acrux-trazabilidad/internal/logger"
	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

const timeout = 15 * time.Minute

type harness struct {
	clk     *fakeClock
	hub     *ActivityHub
	store   *MemoryStore
	auth    *fakeAuth
	ctrl    *Controller
	changes []State
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	h := &harness{
		clk:   newFakeClock(),
		hub:   NewActivityHub(),
		store: &MemoryStore{},
		auth: &fakeAuth{
			token: "tok-1",
			user:  model.UserRecord{ID: 7, Nombre: "Ana", Rol: model.RoleCapturador},
		},
	}
	h.ctrl = NewController(h.store, h.auth, h.hub,
		WithClock(h.clk), WithIdleTimeout(timeout), WithLogger(quiet))
	h.ctrl.OnChange(func(s State) { h.changes = append(h.changes, s) })
	return h
}

func (h *harness) logouts() int {
	n := 0
	for _, s := range h.changes {
		if s == StateUnauthenticated {
			n++
		}
	}
	return n
}

func (h *harness) listeners() int {
	n := 0
	for _, k := range QualifyingEvents {
		n += h.hub.Listeners(k)
	}
	return n
}

func loggedIn(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.ctrl.Start()
	if err := h.ctrl.Login(context.Background(), "ana@acrux.mx", "secreto"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	h.changes = nil
	return h
}

func TestNewControllerStartsLoading(t *testing.T) {
	h := newHarness(t)
	if got := h.ctrl.State(); got != StateLoading {
		t.Fatalf("State() = %s, want loading", got)
	}
	if d := access.Decide(h.ctrl.Status(), nil); d.Outcome != access.Wait {
		t.Fatalf("guard outcome = %s, want wait", d.Outcome)
	}
}

func TestStartRestoresPersistedSession(t *testing.T) {
	h := newHarness(t)
	_ = h.store.Save(Session{Token: "abc", User: &model.UserRecord{ID: 1, Nombre: "Dir", Rol: model.RoleDirector}})

	h.ctrl.Start()

	if got := h.ctrl.State(); got != StateAuthenticated {
		t.Fatalf("State() = %s, want authenticated", got)
	}
	if h.auth.calls != 0 {
		t.Errorf("authenticator called %d times, want 0", h.auth.calls)
	}
	if h.ctrl.Token() != "abc" {
		t.Errorf("Token() = %q, want abc", h.ctrl.Token())
	}
	if h.clk.Pending() != 1 {
		t.Errorf("pending timers = %d, want 1", h.clk.Pending())
	}
	if h.listeners() != len(QualifyingEvents) {
		t.Errorf("listeners = %d, want %d", h.listeners(), len(QualifyingEvents))
	}
}

func TestStartWithIncompleteSession(t *testing.T) {
	tests := []struct {
		name string
		sess Session
	}{
		{"empty", Session{}},
		{"token without user", Session{Token: "abc"}},
		{"user without token", Session{User: &model.UserRecord{ID: 1, Rol: model.RoleAdmin}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_ = h.store.Save(tt.sess)
			h.ctrl.Start()
			if got := h.ctrl.State(); got != StateUnauthenticated {
				t.Fatalf("State() = %s, want unauthenticated", got)
			}
			if h.clk.Pending() != 0 || h.listeners() != 0 {
				t.Errorf("timer/listeners armed while unauthenticated")
			}
		})
	}
}

func TestStartTreatsStoreErrorAsAbsent(t *testing.T) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	c := NewController(&failingStore{}, &fakeAuth{}, NewActivityHub(), WithClock(newFakeClock()), WithLogger(quiet))
	c.Start()
	if got := c.State(); got != StateUnauthenticated {
		t.Fatalf("State() = %s, want unauthenticated", got)
	}
}

func TestLoginPersistsAndArms(t *testing.T) {
	h := loggedIn(t)

	stored, _ := h.store.Load()
	if stored.Token != "tok-1" || stored.User == nil || stored.User.ID != 7 {
		t.Fatalf("stored session = %+v", stored)
	}
	if h.clk.Pending() != 1 {
		t.Errorf("pending timers = %d, want 1", h.clk.Pending())
	}
	u, ok := h.ctrl.User()
	if !ok || u.Rol != model.RoleCapturador {
		t.Errorf("User() = %+v, %v", u, ok)
	}
}

func TestLoginFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start()
	h.auth.err = &messageErr{msg: "Invalid credentials"}

	err := h.ctrl.Login(context.Background(), "bad@x.com", "wrong")

	if err == nil {
		t.Fatal("Login() error = nil")
	}
	if err.Error() != "Invalid credentials" {
		t.Errorf("error message = %q, want %q", err.Error(), "Invalid credentials")
	}
	var le *LoginError
	if !errors.As(err, &le) {
		t.Errorf("error is %T, want *LoginError", err)
	}
	if got := h.ctrl.State(); got != StateUnauthenticated {
		t.Errorf("State() = %s, want unauthenticated", got)
	}
	if h.auth.calls != 1 {
		t.Errorf("authenticator called %d times, want 1", h.auth.calls)
	}
}

func TestLoginFailureWithoutPayloadUsesFallback(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start()
	h.auth.err = errors.New("dial tcp: connection refused")

	err := h.ctrl.Login(context.Background(), "a@b.c", "x")
	if err == nil || err.Error() != FallbackLoginMessage {
		t.Fatalf("Login() error = %v, want %q", err, FallbackLoginMessage)
	}
}

func TestIdleTimeoutLogsOut(t *testing.T) {
	h := loggedIn(t)

	h.clk.Advance(timeout - time.Second)
	if h.ctrl.State() != StateAuthenticated {
		t.Fatal("logged out before deadline")
	}
	h.clk.Advance(time.Second)
	if h.ctrl.State() != StateUnauthenticated {
		t.Fatal("still authenticated at deadline")
	}
	if stored, _ := h.store.Load(); stored.Token != "" {
		t.Errorf("store not cleared: %+v", stored)
	}
	if h.listeners() != 0 {
		t.Errorf("listeners after timeout = %d, want 0", h.listeners())
	}
}

func TestActivityPostponesDeadline(t *testing.T) {
	h := loggedIn(t)

	h.clk.Advance(timeout - time.Second)
	h.hub.Emit(KeyDown)

	h.clk.Advance(time.Second)
	if h.ctrl.State() != StateAuthenticated {
		t.Fatal("logged out at the original deadline")
	}
	h.clk.Advance(timeout - time.Second - time.Millisecond)
	if h.ctrl.State() != StateAuthenticated {
		t.Fatal("logged out before the rescheduled deadline")
	}
	h.clk.Advance(time.Millisecond)
	if h.ctrl.State() != StateUnauthenticated {
		t.Fatal("still authenticated at (timeout-1s)+timeout")
	}
	if h.logouts() != 1 {
		t.Errorf("logouts = %d, want 1", h.logouts())
	}
}

func TestActivityBurstKeepsSingleTimer(t *testing.T) {
	h := loggedIn(t)
	for i := 0; i < 50; i++ {
		h.hub.Emit(QualifyingEvents[i%len(QualifyingEvents)])
		h.clk.Advance(time.Second)
	}
	if got := h.clk.Pending(); got != 1 {
		t.Fatalf("pending timers = %d, want 1", got)
	}
}

func TestNoTimerAfterLogout(t *testing.T) {
	h := loggedIn(t)
	h.ctrl.Logout()

	if h.clk.Pending() != 0 {
		t.Fatalf("pending timers after logout = %d", h.clk.Pending())
	}
	h.clk.Advance(2 * timeout)
	if h.logouts() != 1 {
		t.Errorf("logouts = %d, want exactly the explicit one", h.logouts())
	}
	h.hub.Emit(Click)
	if h.clk.Pending() != 0 {
		t.Errorf("activity after logout armed a timer")
	}
}

func TestLogoutIdempotent(t *testing.T) {
	h := loggedIn(t)
	h.ctrl.Logout()
	h.ctrl.Logout()
	if h.logouts() != 1 {
		t.Errorf("observers saw %d logouts, want 1", h.logouts())
	}
	if h.ctrl.State() != StateUnauthenticated {
		t.Errorf("State() = %s", h.ctrl.State())
	}
}

func TestListenersBalancedAcrossCycles(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start()
	for i := 0; i < 5; i++ {
		if err := h.ctrl.Login(context.Background(), "a@b.c", "x"); err != nil {
			t.Fatal(err)
		}
		// A second login while authenticated must not double-subscribe.
		if err := h.ctrl.Login(context.Background(), "a@b.c", "x"); err != nil {
			t.Fatal(err)
		}
		if got := h.listeners(); got != len(QualifyingEvents) {
			t.Fatalf("cycle %d: listeners = %d, want %d", i, got, len(QualifyingEvents))
		}
		h.ctrl.Logout()
		if got := h.listeners(); got != 0 {
			t.Fatalf("cycle %d: listeners after logout = %d", i, got)
		}
	}
}

func TestCloseRemovesListenersAndTimer(t *testing.T) {
	h := loggedIn(t)
	h.ctrl.Close()
	if h.listeners() != 0 || h.clk.Pending() != 0 {
		t.Fatalf("listeners=%d pending=%d after Close", h.listeners(), h.clk.Pending())
	}
	h.clk.Advance(2 * timeout)
	if h.logouts() != 0 {
		t.Errorf("timer fired after Close")
	}
}

func TestStatusFeedsGuard(t *testing.T) {
	h := newHarness(t)
	_ = h.store.Save(Session{Token: "t", User: &model.UserRecord{ID: 3, Rol: model.RoleCoordinador}})
	h.ctrl.Start()

	d := access.Decide(h.ctrl.Status(), []model.Role{model.RoleAdmin})
	if d.Outcome != access.Denied || d.Role != model.RoleCoordinador {
		t.Fatalf("Decide() = %+v, want denied for COORDINADOR", d)
	}
	h.ctrl.Logout()
	d = access.Decide(h.ctrl.Status(), []model.Role{model.RoleAdmin})
	if d.Outcome != access.RedirectLogin || !d.Replace {
		t.Fatalf("Decide() after logout = %+v", d)
	}
}

func TestLoginAfterCloseFails(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start()
	h.ctrl.Close()

	err := h.ctrl.Login(context.Background(), "ana@acrux.mx", "secreto123")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Login() after Close = %v, want ErrClosed", err)
	}
	if h.auth.calls != 0 {
		t.Errorf("collaborator called %d times after Close", h.auth.calls)
	}
	if h.ctrl.State() != StateUnauthenticated || h.clk.Pending() != 0 || h.listeners() != 0 {
		t.Fatalf("state=%v pending=%d listeners=%d", h.ctrl.State(), h.clk.Pending(), h.listeners())
	}
	if stored, _ := h.store.Load(); stored.Complete() {
		t.Errorf("session persisted after Close: %+v", stored)
	}
}

func TestStartAfterCloseDoesNotRestore(t *testing.T) {
	h := newHarness(t)
	_ = h.store.Save(Session{Token: "abc", User: &model.UserRecord{ID: 2, Rol: model.RoleDirector}})
	h.ctrl.Close()
	h.ctrl.Start()

	if h.ctrl.State() != StateUnauthenticated || h.clk.Pending() != 0 {
		t.Fatalf("state=%v pending=%d", h.ctrl.State(), h.clk.Pending())
	}
	if stored, _ := h.store.Load(); !stored.Complete() {
		t.Errorf("stored session dropped by Close")
	}
}

func TestDefaultLoggerIsProcessLogger(t *testing.T) {
	c := NewController(&MemoryStore{}, &fakeAuth{}, nil)
	if c.log != logger.Logger {
		t.Fatalf("default logger = %T, want logger.Logger", c.log)
	}
}
