package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/campus-navigator/internal/config"
	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/repository"
	"github.com/iliyamo/campus-navigator/internal/utils"
)

const testSecret = "test-secret"

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, u model.User) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, u, 5)
	require.NoError(t, err)
	return tok.Token
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func whoami(c echo.Context) error {
	caller, ok := CallerFrom(c)
	if !ok {
		return c.String(http.StatusOK, "anon")
	}
	return c.String(http.StatusOK, caller.Username)
}

func TestAllowMethods(t *testing.T) {
	e := echo.New()
	e.Any("/toggle", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, AllowMethods("POST only", http.MethodPost))

	rec := serve(e, http.MethodGet, "/toggle", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"POST only"}`, rec.Body.String())
	assert.Equal(t, "POST", rec.Header().Get(echo.HeaderAllow))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/toggle", "").Code)
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(testSecret))

	rec := serve(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := utils.NewAccessToken("other-secret", model.User{ID: 1, Username: "eve"}, 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", other.Token).Code)

	rec = serve(e, http.MethodGet, "/me", tokenFor(t, model.User{ID: 7, Username: "alice"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestIdentifyNeverRejects(t *testing.T) {
	e := echo.New()
	e.GET("/who", whoami, Identify(testSecret))

	assert.Equal(t, "anon", serve(e, http.MethodGet, "/who", "").Body.String())
	assert.Equal(t, "anon", serve(e, http.MethodGet, "/who", "garbage").Body.String())
	assert.Equal(t, "bob", serve(e, http.MethodGet, "/who", tokenFor(t, model.User{ID: 3, Username: "bob"})).Body.String())
}

func TestRequireSuperuser(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(testSecret), RequireSuperuser(nil))

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin", "").Code)

	rec := serve(e, http.MethodGet, "/admin", tokenFor(t, model.User{ID: 2, Username: "alice"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/admin", tokenFor(t, model.User{ID: 1, Username: "root", IsSuperuser: true}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeUsers map[uint64]model.User

func (f fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if id == 99 {
		return model.User{}, errors.New("db down")
	}
	u, ok := f[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func TestRequireSuperuserReadsAccount(t *testing.T) {
	users := fakeUsers{
		1: {ID: 1, Username: "root", IsSuperuser: true, IsActive: true},
		2: {ID: 2, Username: "demoted", IsSuperuser: false, IsActive: true},
		3: {ID: 3, Username: "gone", IsSuperuser: true, IsActive: false},
		4: {ID: 4, Username: "promoted", IsSuperuser: true, IsActive: true},
	}
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(testSecret), RequireSuperuser(users))

	asAdmin := func(id uint64, su bool) int {
		return serve(e, http.MethodGet, "/admin", tokenFor(t, model.User{ID: id, Username: "x", IsSuperuser: su})).Code
	}
	assert.Equal(t, http.StatusOK, asAdmin(1, true))
	assert.Equal(t, http.StatusForbidden, asAdmin(2, true))
	assert.Equal(t, http.StatusUnauthorized, asAdmin(3, true))
	assert.Equal(t, http.StatusOK, asAdmin(4, false))
	assert.Equal(t, http.StatusUnauthorized, asAdmin(5, true))
	assert.Equal(t, http.StatusInternalServerError, asAdmin(99, true))

	rec := serve(e, http.MethodGet, "/admin", tokenFor(t, model.User{ID: 4, Username: "stale"}))
	assert.Equal(t, "promoted", rec.Body.String())
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "test:cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestRedisCacheHitMissAndInvalidate(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := cacheCfg()
	calls := 0
	status := http.StatusOK

	e := echo.New()
	e.GET("/api/pois/", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, []string{"poi"})
	}, NewRedisCache(cfg, rdb))
	e.POST("/api/poi/create/", func(c echo.Context) error {
		return c.JSON(status, echo.Map{"ok": status == http.StatusOK})
	}, InvalidateCache(cfg, rdb, zap.NewNop()))

	rec := serve(e, http.MethodGet, "/api/pois/", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = serve(e, http.MethodGet, "/api/pois/", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `["poi"]`, strings.TrimSpace(rec.Body.String()))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json")
	assert.Equal(t, 1, calls)

	// another query string is another entry
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/api/pois/?x=1", "").Header().Get("X-Cache"))

	status = http.StatusBadRequest
	serve(e, http.MethodPost, "/api/poi/create/", "")
	assert.Equal(t, "HIT", serve(e, http.MethodGet, "/api/pois/", "").Header().Get("X-Cache"))

	status = http.StatusOK
	serve(e, http.MethodPost, "/api/poi/create/", "")
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/api/pois/", "").Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	e.GET("/boom", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "x"})
	}, NewRedisCache(cacheCfg(), rdb))

	serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/boom", "").Header().Get("X-Cache"))
}

func TestPurgeCacheOnlyTouchesPrefix(t *testing.T) {
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set("test:cache:a", "1"))
	require.NoError(t, mr.Set("test:cache:b", "1"))
	require.NoError(t, mr.Set("other:c", "1"))

	n, err := PurgeCache(context.Background(), rdb, "test:cache")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists("test:cache:a"))
	assert.True(t, mr.Exists("other:c"))

	gen, err := mr.Get("test:cache-gen")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
}

func TestRedisCacheDropsFillThatRacedPurge(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := cacheCfg()
	version := 1

	e := echo.New()
	e.GET("/api/pois/", func(c echo.Context) error {
		body := []int{version}
		if version == 1 {
			// a write lands between this read and the cache fill
			version = 2
			_, err := PurgeCache(context.Background(), rdb, cfg.Prefix)
			require.NoError(t, err)
		}
		return c.JSON(http.StatusOK, body)
	}, NewRedisCache(cfg, rdb))

	rec := serve(e, http.MethodGet, "/api/pois/", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `[1]`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/pois/", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `[2]`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/pois/", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `[2]`, rec.Body.String())
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "x") }, NewRedisCache(cacheCfg(), nil))
	rec := serve(e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestTokenBucket(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            2 * time.Hour,
		KeyStrategy:    "ip_user_route",
		Prefix:         "test:rl",
	}
	e := echo.New()
	g := e.Group("/api", Identify(testSecret), NewTokenBucket(cfg, rdb, zap.NewNop()))
	g.GET("/pois/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := serve(e, http.MethodGet, "/api/pois/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/pois/", "").Code)

	rec = serve(e, http.MethodGet, "/api/pois/", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too_many_requests")

	// an authenticated user has its own bucket
	tok := tokenFor(t, model.User{ID: 9, Username: "carol"})
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/pois/", tok).Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "test:rl"}
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewTokenBucket(cfg, rdb, zap.NewNop()))

	mr.Close()
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", "").Code)
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") })

	serve(e, http.MethodGet, "/ok", "")
	serve(e, http.MethodGet, "/fail", "")
	serve(e, http.MethodGet, "/missing", "")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["uri"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
}
