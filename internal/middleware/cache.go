package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/view"
)

// pageRecorder tees the response to the client and keeps a copy of the
// body until it grows past max bytes.
type pageRecorder struct {
	http.ResponseWriter
	code     int
	body     bytes.Buffer
	max      int64
	overflow bool
}

func (p *pageRecorder) WriteHeader(code int) {
	p.code = code
	p.ResponseWriter.WriteHeader(code)
}

func (p *pageRecorder) Write(b []byte) (int, error) {
	if !p.overflow {
		if p.max > 0 && int64(p.body.Len()+len(b)) > p.max {
			p.overflow = true
			p.body.Reset()
		} else {
			p.body.Write(b)
		}
	}
	return p.ResponseWriter.Write(b)
}

// pageKey hashes the parts of the request selected by the key strategy and
// prefixes the digest with the configured namespace.
func pageKey(cfg config.CacheConfig, r *http.Request) string {
	h := sha1.New()
	if strings.EqualFold(cfg.KeyStrategy, "method_route_query") {
		h.Write([]byte(r.Method + " "))
	}
	h.Write([]byte(r.URL.Path))
	if !strings.EqualFold(cfg.KeyStrategy, "route") {
		h.Write([]byte("?" + r.URL.RawQuery))
	}
	return cfg.Prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// cachedPage is the value stored under a page key.
type cachedPage struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

func encodePage(p cachedPage) ([]byte, error) { return json.Marshal(p) }

func decodePage(bs []byte) (cachedPage, bool) {
	var p cachedPage
	if err := json.Unmarshal(bs, &p); err != nil || p.Status == 0 {
		return cachedPage{}, false
	}
	return p, true
}

// replay writes a stored page to the client.
func replay(c echo.Context, p cachedPage) {
	h := c.Response().Header()
	for k, vals := range p.Header {
		if strings.EqualFold(k, echo.HeaderContentLength) {
			continue
		}
		h[k] = append([]string(nil), vals...)
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(p.Status)
	_, _ = c.Response().Write(p.Body)
}

// cacheable reports whether the request may be answered from, or stored
// in, the shared cache. Pages for logged-in users and pages carrying a
// flash message are personal and never cached.
func cacheable(cfg config.CacheConfig, c echo.Context) bool {
	if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
		return false
	}
	if CurrentUser(c) != nil || SessionToken(c) != "" || view.HasFlash(c) {
		return false
	}
	return true
}

// NewRedisCache serves repeated anonymous GETs of catalog pages from Redis.
// Headers are stored with the body so cached responses are identical to
// fresh ones. Without Redis the middleware is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *logrus.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cacheable(cfg, c) {
				return next(c)
			}
			ctx := c.Request().Context()
			key := pageKey(cfg, c.Request())

			bs, err := rdb.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				if page, ok := decodePage(bs); ok {
					replay(c, page)
					return nil
				}
			case !errors.Is(err, redis.Nil):
				log.WithError(err).WithField("key", key).Debug("page cache read failed")
			}

			rec := &pageRecorder{ResponseWriter: c.Response().Writer, code: http.StatusOK, max: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.code != http.StatusOK || rec.overflow || c.Response().Header().Get(echo.HeaderSetCookie) != "" {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := encodePage(cachedPage{Status: rec.code, Header: hdr, Body: rec.body.Bytes()})
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				log.WithError(err).WithField("key", key).Debug("page cache write failed")
			}
			return nil
		}
	}
}
