package middleware

import (
	"net/http" // status codes for denied and unauthenticated requests

	"github.com/labstack/echo/v4" // Echo framework types for middleware

	"github.com/iliyamo/acrux-trazabilidad/internal/access" // shared guard decision
	"github.com/iliyamo/acrux-trazabilidad/internal/model"  // role values
)

// RequireRole gates a route with access.Decide.  An empty role list admits
// any authenticated user.  It must run after JWTAuth, which stores the
// user id and role this middleware reads.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	// Private copy of the allowed roles.
	allowed := append([]model.Role(nil), roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A request is authenticated when JWTAuth stored a user id.
			_, authed := UserID(c)
			d := access.Decide(access.Status{Authenticated: authed, Role: Role(c)}, allowed)
			switch d.Outcome {
			case access.Allow:
				return next(c)
			case access.Denied:
				// Authenticated but outside the allowed roles: report the
				// caller's actual role, no redirect.
				return c.JSON(http.StatusForbidden, echo.Map{"error": "acceso denegado", "rol": d.Role})
			default:
				// Unauthenticated: point the client at the login entry and
				// ask it to replace the current history entry.
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":    "unauthorized",
					"redirect": d.Target,
					"replace":  d.Replace,
				})
			}
		}
	}
}
