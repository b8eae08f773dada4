package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/grant-portal/internal/config"
	"github.com/iliyamo/grant-portal/internal/utils"
)

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionAuth(t *testing.T) {
	key, err := utils.DeriveKey("secret", "access-token")
	require.NoError(t, err)
	tok, err := utils.NewAccessToken(key, "oidc|7", 5)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error { return c.String(http.StatusOK, UserID(c)) }, SessionAuth(key))
	e.GET("/maybe", func(c echo.Context) error { return c.String(http.StatusOK, "user="+UserID(c)) }, OptionalSessionAuth(key))

	rec := serve(e, http.MethodGet, "/me", "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "oidc|7", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "Bearer junk").Code)

	rec = serve(e, http.MethodGet, "/maybe", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user=", rec.Body.String())
	rec = serve(e, http.MethodGet, "/maybe", "Bearer "+tok.Token)
	assert.Equal(t, "user=oidc|7", rec.Body.String())
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/maybe", "Bearer junk").Code)
}

func TestRateLimiterFallsBackToLocalBucket(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e := echo.New()
	e.GET("/api/grants", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, nil, log))

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodGet, "/api/grants", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := serve(e, http.MethodGet, "/api/grants", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiterDisabled(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(config.RateLimitConfig{Enabled: false, Capacity: 1}, nil, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", "").Code)
	}
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/grants", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/grants")
	c.Set(ContextUserID, "u1")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	cases := map[string]string{
		"ip":         "rl:ip:10.0.0.1",
		"user":       "rl:user:u1",
		"route":      "rl:route:GET /api/grants",
		"user_route": "rl:user:u1:route:GET /api/grants",
		"":           "rl:ip:10.0.0.1:user:u1:route:GET /api/grants",
	}
	for strategy, want := range cases {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, rateKey(cfg, c), strategy)
	}
}

func TestCachePassThroughWithoutRedis(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, Prefix: "grants-cache"}
	calls := 0
	e := echo.New()
	e.GET("/api/stats", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}, NewRedisCache(cfg, nil, nil))

	for i := 0; i < 3; i++ {
		rec := serve(e, http.MethodGet, "/api/stats", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 3, calls)
}

func TestCacheKeyIncludesPathAndQuery(t *testing.T) {
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/api/grants/:id")
		return cacheKey(config.CacheConfig{Prefix: "grants-cache"}, c)
	}
	a, b := key("/api/grants/1"), key("/api/grants/2")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, key("/api/grants/1?x=1"))
	assert.Equal(t, a, key("/api/grants/1"))
	assert.Contains(t, a, "grants-cache:")
}

func TestPayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
	_, _, _, ok = decodePayload(append([]byte{0, 0, 0, 200, 0, 0, 1, 0}, 'x'))
	assert.False(t, ok)
}

func TestCachedHeadersKeepCurrentRequestID(t *testing.T) {
	live := http.Header{}
	live.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	live.Set(echo.HeaderXRequestID, "first-request")
	live.Set(echo.HeaderContentLength, "42")
	live.Set("X-Cache", "MISS")

	stored := storableHeaders(live)
	assert.Equal(t, echo.MIMEApplicationJSON, stored.Get(echo.HeaderContentType))
	assert.Empty(t, stored.Values(echo.HeaderXRequestID))
	assert.Empty(t, stored.Values(echo.HeaderContentLength))
	assert.Empty(t, stored.Values("X-Cache"))
	assert.Equal(t, "first-request", live.Get(echo.HeaderXRequestID))

	// entries written before request ids were stripped still carry one
	stale := stored.Clone()
	stale.Set(echo.HeaderXRequestID, "first-request")

	hit := http.Header{}
	hit.Set(echo.HeaderXRequestID, "second-request")
	restoreHeaders(hit, stale)
	assert.Equal(t, []string{"second-request"}, hit.Values(echo.HeaderXRequestID))
	assert.Equal(t, echo.MIMEApplicationJSON, hit.Get(echo.HeaderContentType))
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return c.NoContent(http.StatusInternalServerError) })

	serve(e, http.MethodGet, "/ok", "")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "/ok", entry.Data["uri"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])

	serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
