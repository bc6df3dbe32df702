package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

type fakeResolver map[string]*model.User

func (f fakeResolver) ResolveSession(_ context.Context, token string) (*model.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown session")
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func newEcho(res SessionResolver) *echo.Echo {
	e := echo.New()
	e.Use(LoadSession(res))
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentUser(c).Username)
	}, RequireSession())
	e.POST("/me", okHandler, RequireSession())
	e.GET("/admin", okHandler, RequireRole(model.RoleAdmin))
	return e
}

func serve(e *echo.Echo, method, target string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireSessionRedirectsWithNext(t *testing.T) {
	e := newEcho(fakeResolver{})

	rec := serve(e, http.MethodGet, "/me?tab=2", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fme%3Ftab%3D2", rec.Header().Get("Location"))

	rec = serve(e, http.MethodPost, "/me", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoadSessionAttachesUser(t *testing.T) {
	alice := &model.User{ID: 7, Username: "alice", Role: model.RoleUser}
	e := newEcho(fakeResolver{"good": alice})

	rec := serve(e, http.MethodGet, "/me", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/me", "stale")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookie+"=;")
}

func TestRequireRole(t *testing.T) {
	alice := &model.User{ID: 1, Username: "alice", Role: model.RoleUser}
	root := &model.User{ID: 2, Username: "root", Role: model.RoleAdmin}
	e := newEcho(fakeResolver{"user": alice, "admin": root})

	rec := serve(e, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login"))

	rec = serve(e, http.MethodGet, "/admin", "user")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Access+denied")

	rec = serve(e, http.MethodGet, "/admin", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLocalLimiter(t *testing.T) {
	l := newLocalLimiter(config.RateLimitConfig{
		Capacity: 2, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute,
	}.Normalize())
	now := time.Now()

	d := l.allow("k", now)
	assert.True(t, d.allowed)
	assert.EqualValues(t, 1, d.remaining)
	assert.True(t, l.allow("k", now).allowed)
	d = l.allow("k", now)
	assert.False(t, d.allowed)
	assert.Greater(t, d.retry, time.Duration(0))
	assert.Equal(t, 1, d.retrySeconds())

	assert.True(t, l.allow("other", now).allowed, "buckets are per key")
	assert.True(t, l.allow("k", now.Add(1100*time.Millisecond)).allowed, "bucket refills over time")
}

func TestTokenBucketWithoutRedis(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute, KeyStrategy: "ip",
	}, nil, nil, logger.Discard()))
	e.GET("/", okHandler)

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := serve(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too_many_requests")
}

// signedTokens accepts tokens of the form "valid-<id>".
type signedTokens struct{}

func (signedTokens) TokenSubject(token string) (uint64, bool) {
	id, ok := strings.CutPrefix(token, "valid-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(id, 10, 64)
	return n, err == nil
}

type countingResolver struct{ calls atomic.Int32 }

func (r *countingResolver) ResolveSession(context.Context, string) (*model.User, error) {
	r.calls.Add(1)
	return &model.User{ID: 1, Role: model.RoleUser}, nil
}

func TestTokenBucketRunsBeforeSessionLookup(t *testing.T) {
	res := &countingResolver{}
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{
		Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute, KeyStrategy: "user",
	}, nil, signedTokens{}, logger.Discard()))
	e.Use(LoadSession(res))
	e.GET("/", okHandler)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", "valid-7").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodGet, "/", "valid-7").Code)
	assert.EqualValues(t, 1, res.calls.Load(), "limited request never reaches the session store")

	// Users get their own buckets; unverifiable tokens share the anonymous one.
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", "valid-8").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", "forged-1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodGet, "/", "forged-2").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodGet, "/", "").Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger(logger.Discard()))
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("request_id").(string))
	})

	rec := serve(e, http.MethodGet, "/", "")
	rid := rec.Header().Get(RequestIDHeader)
	assert.Len(t, rid, 36)
	assert.Equal(t, rid, rec.Body.String())

	const incoming = "0b6f4c52-3f0e-4a43-9a1e-8f0b9b2a7c11"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bogus")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.NotEqual(t, "bogus", rec.Header().Get(RequestIDHeader))
}

func TestCacheableSkipsPersonalRequests(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}
	e := echo.New()

	ctx := func(r *http.Request) echo.Context { return e.NewContext(r, httptest.NewRecorder()) }

	assert.True(t, cacheable(cfg, ctx(httptest.NewRequest(http.MethodGet, "/movies", nil))))
	assert.False(t, cacheable(cfg, ctx(httptest.NewRequest(http.MethodPost, "/movies", nil))))

	withSession := httptest.NewRequest(http.MethodGet, "/movies", nil)
	withSession.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
	assert.False(t, cacheable(cfg, ctx(withSession)))

	withFlash := httptest.NewRequest(http.MethodGet, "/", nil)
	withFlash.AddCookie(&http.Cookie{Name: "flash", Value: "success%7CBooked"})
	assert.False(t, cacheable(cfg, ctx(withFlash)))
}

func TestCachedPageRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"text/html; charset=UTF-8"}}
	bs, err := encodePage(cachedPage{Status: http.StatusOK, Header: hdr, Body: []byte("<h1>hi</h1>")})
	require.NoError(t, err)

	page, ok := decodePage(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, page.Status)
	assert.Equal(t, hdr.Get("Content-Type"), page.Header.Get("Content-Type"))
	assert.Equal(t, "<h1>hi</h1>", string(page.Body))

	_, ok = decodePage([]byte{0, 1})
	assert.False(t, ok)
}

func TestPageKeyStrategies(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/movies?page=2", nil)
	cfg := config.CacheConfig{Prefix: "pages", KeyStrategy: "route_query"}
	withQuery := pageKey(cfg, r)
	assert.True(t, strings.HasPrefix(withQuery, "pages:"))

	cfg.KeyStrategy = "route"
	assert.NotEqual(t, withQuery, pageKey(cfg, r))
	assert.Equal(t, pageKey(cfg, r), pageKey(cfg, httptest.NewRequest(http.MethodGet, "/movies?page=3", nil)))
}
