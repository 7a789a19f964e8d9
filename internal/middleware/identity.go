package middleware

import (
	"strconv" // user id formatting for keys

	"github.com/labstack/echo/v4" // Echo context access

	"github.com/iliyamo/acrux-trazabilidad/internal/model" // role type stored in the context
)

// Context keys set by JWTAuth.
const (
	CtxUserID    = "user_id" // uint64 user id from the sub claim
	CtxRole      = "rol"     // model.Role from the rol claim
	CtxSessionID = "sid"     // server session id from the jti claim
)

// UserID returns the authenticated user id stored by JWTAuth.  The second
// result is false for anonymous requests.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated role or "".
func Role(c echo.Context) model.Role {
	r, _ := c.Get(CtxRole).(model.Role)
	return r
}

// SessionID returns the server session bound to the request token.
func SessionID(c echo.Context) string {
	s, _ := c.Get(CtxSessionID).(string)
	return s
}

// identityKey names the caller for cache and rate-limit keys:
// "user:<id>" when authenticated, "guest" otherwise.
func identityKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + strconv.FormatUint(id, 10)
	}
	return "guest"
}
