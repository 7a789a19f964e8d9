package middleware

import (
	"time" // request latency

	"github.com/labstack/echo/v4" // Echo framework types for middleware
	"github.com/sirupsen/logrus"  // structured log fields
)

// RequestLog writes one line per request.  Server errors are logged at
// error level, client errors at warn.
func RequestLog(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			// Let echo write the error response now so the logged status
			// is the one the client receives.
			if err != nil {
				c.Error(err)
			}
			res := c.Response()
			fields := logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     res.Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"request_id": res.Header().Get(echo.HeaderXRequestID),
			}
			if id, ok := UserID(c); ok {
				fields["user_id"] = id
			}
			// Level follows the status class.
			entry := log.WithFields(fields)
			switch {
			case res.Status >= 500:
				entry.Error("request")
			case res.Status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		}
	}
}
