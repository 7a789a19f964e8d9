package handler

import (
	"errors"   // errors.Is on repository sentinels
	"net/http" // HTTP status codes
	"time"     // token lifetime

	"github.com/google/uuid"      // session ids when Redis is not configured
	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/acrux-trazabilidad/internal/access"     // role landing paths
	"github.com/iliyamo/acrux-trazabilidad/internal/config"     // app configuration
	"github.com/iliyamo/acrux-trazabilidad/internal/logger"     // process-wide logger
	"github.com/iliyamo/acrux-trazabilidad/internal/middleware" // session id from the context
	"github.com/iliyamo/acrux-trazabilidad/internal/model"      // user records
	"github.com/iliyamo/acrux-trazabilidad/internal/repository" // users and server sessions
	"github.com/iliyamo/acrux-trazabilidad/internal/utils"      // password check and token issuing
)

// InvalidCredentials is the message of every failed login.  Unknown
// email, wrong password and inactive account are indistinguishable.
const InvalidCredentials = "Invalid credentials"

// AuthHandler bundles dependencies for auth endpoints.  Sessions may be
// nil, in which case only the token expiry bounds a login.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *repository.SessionRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token   string           `json:"token"`
	User    model.UserRecord `json:"user"`
	Landing string           `json:"landing"`
	Expires time.Time        `json:"expires"`
}

// Login verifies credentials, opens a server session and returns a token
// bound to it.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email/password required")
	}

	// Bound all storage calls of the login.
	ctx, cancel := dbCtx(c)
	defer cancel()

	// The repository lowercases and trims the email before the lookup.
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusUnauthorized, InvalidCredentials)
	}
	if err != nil {
		return repoError(c, err, "query failed")
	}
	// Inactive accounts and wrong passwords answer like unknown emails.
	if !u.Activo || !u.Rol.Valid() || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, InvalidCredentials)
	}

	// The server session is what expires after inactivity; the token only
	// names it.
	sid := uuid.NewString()
	if h.Sessions != nil {
		s, err := h.Sessions.Create(ctx, u.ID, u.Rol)
		if err != nil {
			logger.Logger.WithError(err).Error("create session failed")
			return fail(c, http.StatusServiceUnavailable, "session store unavailable")
		}
		sid = s.ID
	}

	// Issue the access token bound to sid.
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Rol, sid, time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue access failed")
	}
	logger.Logger.WithField("user_id", u.ID).WithField("rol", u.Rol).Info("login")
	return c.JSON(http.StatusOK, LoginResponse{
		Token:   tok.Token,
		User:    u.Record(),
		Landing: access.Landing(u.Rol),
		Expires: tok.Exp,
	})
}

// Logout deletes the server session bound to the request token.
func (h *AuthHandler) Logout(c echo.Context) error {
	// Without a session store there is nothing to revoke; the token
	// simply runs out.
	if h.Sessions != nil {
		ctx, cancel := dbCtx(c)
		defer cancel()
		if err := h.Sessions.Delete(ctx, middleware.SessionID(c)); err != nil {
			logger.Logger.WithError(err).Error("delete session failed")
			return fail(c, http.StatusInternalServerError, "logout failed")
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's user record and landing path.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return repoError(c, err, "load user failed")
	}
	// The record is reloaded so role or name changes show up without a
	// new login.
	return data(c, http.StatusOK, echo.Map{"user": u.Record(), "landing": access.Landing(u.Rol)})
}
