package middleware

import (
	"bytes"           // response body capture buffer
	"crypto/sha1"     // fixed-length cache keys
	"encoding/binary" // status and header length framing
	"encoding/json"   // header serialization
	"fmt"             // key formatting
	"net/http"        // ResponseWriter and headers
	"strings"         // key joining and header name comparison
	"time"            // default TTL

	"github.com/labstack/echo/v4"  // Echo framework types for middleware
	"github.com/redis/go-redis/v9" // Redis client for cached payloads

	"github.com/iliyamo/acrux-trazabilidad/internal/config" // cache settings
	"github.com/iliyamo/acrux-trazabilidad/internal/logger" // process-wide logger
)

// captureWriter tees the response body into buf up to limit bytes.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
		cw.buf.Write(b)
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// cacheKey hashes identity, method, route and raw query under prefix.
// Two users asking the same URL get separate entries.
func cacheKey(prefix string, c echo.Context) string {
	r := c.Request()
	tail := strings.Join([]string{identityKey(c), r.Method, c.Path(), r.URL.RawQuery}, "|")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	copy(out[8:], hdr)
	copy(out[8+len(hdr):], body)
	return out, nil
}

// decodePayload reverses encodePayload.  ok is false for a short or
// corrupt payload.
func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// NewRedisCache caches successful responses of the configured methods in
// Redis for cfg.TTL.  Responses carry X-Cache: HIT or MISS.  With caching
// disabled or no client the middleware is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Only the configured methods (GET by default) are cached.
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			// Serve a hit straight from Redis, replaying status, headers
			// and body.
			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						// Length and request id belong to the live response.
						if strings.EqualFold(k, echo.HeaderContentLength) || strings.EqualFold(k, echo.HeaderXRequestID) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, err := c.Response().Write(body)
					return err
				}
			} else if err != redis.Nil {
				// A Redis failure degrades to an uncached request.
				logger.Logger.WithError(err).Warn("cache read failed")
			}

			// Miss: run the handler with a writer that keeps a copy of the
			// body.
			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			// Errors, redirects and oversized bodies are never stored.
			if cw.status != http.StatusOK || cw.truncated() {
				return nil
			}
			// X-Cache describes this response only.
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
				logger.Logger.WithError(err).Warn("cache write failed")
			}
			return nil
		}
	}
}
