package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/iliyamo/acrux-trazabilidad/internal/config"
	"github.com/iliyamo/acrux-trazabilidad/internal/model"
	"github.com/iliyamo/acrux-trazabilidad/internal/repository"
	"github.com/iliyamo/acrux-trazabilidad/internal/utils"
)

const secret = "test-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func whoami(c echo.Context) error {
	id, _ := UserID(c)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "rol": Role(c), "sid": SessionID(c)})
}

func tokenFor(t *testing.T, uid uint64, rol model.Role, sid string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, rol, sid, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok.Token
}

func TestJWTAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret, nil))

	if rec := do(e, http.MethodGet, "/me", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}
	rec := do(e, http.MethodGet, "/me", "garbage")
	if rec.Code != http.StatusUnauthorized || body(t, rec)["error"] != "invalid token" {
		t.Fatalf("bad token: %d %s", rec.Code, rec.Body)
	}
}

func TestJWTAuthWithoutSessionStore(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret, nil))

	rec := do(e, http.MethodGet, "/me", tokenFor(t, 7, model.RoleCapturador, "s-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	m := body(t, rec)
	if m["id"] != float64(7) || m["rol"] != "CAPTURADOR" || m["sid"] != "s-1" {
		t.Fatalf("context = %v", m)
	}
}

func TestJWTAuthSlidesServerSession(t *testing.T) {
	mr, rdb := newRedis(t)
	sessions := repository.NewSessionRepo(rdb, 15*time.Minute)
	s, err := sessions.Create(context.Background(), 3, model.RoleDirector)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret, sessions))
	tok := tokenFor(t, 3, model.RoleDirector, s.ID)

	mr.FastForward(14 * time.Minute)
	if rec := do(e, http.MethodGet, "/me", tok); rec.Code != http.StatusOK {
		t.Fatalf("active session rejected: %d", rec.Code)
	}
	if ttl := mr.TTL("acrux:session:" + s.ID); ttl != 15*time.Minute {
		t.Fatalf("ttl after activity = %v", ttl)
	}

	mr.FastForward(16 * time.Minute)
	rec := do(e, http.MethodGet, "/me", tok)
	if rec.Code != http.StatusUnauthorized || body(t, rec)["error"] != "session expired" {
		t.Fatalf("idle session: %d %s", rec.Code, rec.Body)
	}
}

func TestJWTAuthRejectsSessionOfAnotherUser(t *testing.T) {
	_, rdb := newRedis(t)
	sessions := repository.NewSessionRepo(rdb, time.Minute)
	s, _ := sessions.Create(context.Background(), 3, model.RoleAdmin)

	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret, sessions))
	if rec := do(e, http.MethodGet, "/me", tokenFor(t, 4, model.RoleAdmin, s.ID)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/anon", ok, RequireRole(model.RoleAdmin))
	e.GET("/admin", ok, JWTAuth(secret, nil), RequireRole(model.RoleAdmin))
	e.GET("/any", ok, JWTAuth(secret, nil), RequireRole())

	rec := do(e, http.MethodGet, "/anon", "")
	m := body(t, rec)
	if rec.Code != http.StatusUnauthorized || m["redirect"] != "/login" || m["replace"] != true {
		t.Fatalf("unauthenticated: %d %v", rec.Code, m)
	}

	capt := tokenFor(t, 9, model.RoleCapturador, "s")
	rec = do(e, http.MethodGet, "/admin", capt)
	m = body(t, rec)
	if rec.Code != http.StatusForbidden || m["error"] != "acceso denegado" || m["rol"] != "CAPTURADOR" {
		t.Fatalf("denied: %d %v", rec.Code, m)
	}

	if rec := do(e, http.MethodGet, "/admin", tokenFor(t, 1, model.RoleAdmin, "s")); rec.Code != http.StatusNoContent {
		t.Fatalf("admin: %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/any", capt); rec.Code != http.StatusNoContent {
		t.Fatalf("any role: %d", rec.Code)
	}
}

func TestRedisCacheIsPerUser(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "t:cache"}
	calls := 0
	e := echo.New()
	e.GET("/stats", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, JWTAuth(secret, nil), NewRedisCache(cfg, rdb))

	a := tokenFor(t, 1, model.RoleDirector, "a")
	first := do(e, http.MethodGet, "/stats?x=1", a)
	second := do(e, http.MethodGet, "/stats?x=1", a)
	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("X-Cache = %q, %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if first.Body.String() != second.Body.String() || calls != 1 {
		t.Fatalf("calls=%d bodies %q %q", calls, first.Body, second.Body)
	}

	other := do(e, http.MethodGet, "/stats?x=1", tokenFor(t, 2, model.RoleDirector, "b"))
	if other.Header().Get("X-Cache") != "MISS" || calls != 2 {
		t.Fatalf("second user served from first user's cache")
	}
	if do(e, http.MethodGet, "/stats?x=2", a).Header().Get("X-Cache") != "MISS" {
		t.Fatalf("query not part of the key")
	}
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "t:cache"}
	calls := 0
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "boom"})
	}, NewRedisCache(cfg, rdb))

	do(e, http.MethodGet, "/x", "")
	do(e, http.MethodGet, "/x", "")
	if calls != 2 {
		t.Fatalf("error response was cached")
	}
}

func TestPayloadRoundTripRejectsShortInput(t *testing.T) {
	if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
		t.Fatalf("short payload accepted")
	}
	bs, _ := encodePayload(200, http.Header{"Content-Type": {"application/json"}}, []byte(`{}`))
	status, hdr, b, ok := decodePayload(bs)
	if !ok || status != 200 || hdr.Get("Content-Type") != "application/json" || string(b) != "{}" {
		t.Fatalf("decode = %d %v %q %v", status, hdr, b, ok)
	}
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "t:rl"}
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb, ByIP))

	for i := 0; i < 2; i++ {
		if rec := do(e, http.MethodPost, "/login", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	rec := do(e, http.MethodPost, "/login", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("headers = %v", rec.Header())
	}
}

func TestTokenBucketDisabled(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, nil))
	for i := 0; i < 5; i++ {
		if rec := do(e, http.MethodGet, "/", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("status %d", rec.Code)
		}
	}
}

func TestRequestLog(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	e := echo.New()
	e.Use(RequestLog(log))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "down") })

	do(e, http.MethodGet, "/ok", "")
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.InfoLevel || entry.Data["status"] != http.StatusOK || entry.Data["path"] != "/ok" {
		t.Fatalf("ok entry = %+v", entry)
	}

	rec := do(e, http.MethodGet, "/fail", "")
	entry = hook.LastEntry()
	if rec.Code != http.StatusBadGateway || entry.Level != logrus.ErrorLevel || entry.Data["status"] != http.StatusBadGateway {
		t.Fatalf("fail entry = %+v (code %d)", entry, rec.Code)
	}
}
