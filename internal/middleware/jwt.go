package middleware // reusable HTTP middleware for the API

import (
	"errors"   // errors.Is on repository sentinels
	"net/http" // HTTP status codes for responses
	"strings"  // Bearer prefix handling

	"github.com/labstack/echo/v4" // Echo framework types for middleware

	"github.com/iliyamo/acrux-trazabilidad/internal/logger"     // process-wide logger
	"github.com/iliyamo/acrux-trazabilidad/internal/repository" // Redis server sessions
	"github.com/iliyamo/acrux-trazabilidad/internal/utils"      // access token parsing
)

// JWTAuth validates the Bearer access token and, when sessions is not nil,
// requires the bound server session to be alive.  A valid request slides
// the session expiry.  On success the user id, role and session id are
// stored in the context (see UserID, Role, SessionID).
func JWTAuth(secret string, sessions *repository.SessionRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// The header must read "Bearer <jwt>".
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			// Signature, algorithm, expiry and claim shape are checked here.
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			// ParseAccessToken already rejected a non-numeric subject.
			uid, _ := claims.UserID()

			// Touching the session counts as activity and pushes the idle
			// deadline forward.  A missing session means the user was idle
			// too long or logged out.
			if sessions != nil {
				s, err := sessions.Touch(c.Request().Context(), claims.ID)
				switch {
				case errors.Is(err, repository.ErrSessionNotFound):
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
				case err != nil:
					logger.Logger.WithError(err).Error("session lookup failed")
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session store unavailable"})
				case s.UserID != uid:
					// Token and session belong to different users.
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
				}
			}

			// Downstream handlers read these through the typed helpers.
			c.Set(CtxUserID, uid)
			c.Set(CtxRole, claims.Rol)
			c.Set(CtxSessionID, claims.ID)
			return next(c)
		}
	}
}
