package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iliyamo/cinema-booking/internal/config"
)

// takeToken refills the bucket in whole intervals and then tries to take
// one token. It returns {allowed, tokens left, ms until next refill}.
var takeToken = redis.NewScript(`
local cap, step, every, now = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
local b = redis.call('HMGET', KEYS[1], 'n', 't')
local n, t = tonumber(b[1]), tonumber(b[2])
if not n or not t then n, t = cap, now end
if every > 0 then
  local k = math.floor(math.max(0, now - t) / every)
  if k > 0 then n, t = math.min(cap, n + k * step), t + k * every end
end
local ok, wait = 0, 0
if n > 0 then ok, n = 1, n - 1 else wait = math.max(0, every - (now - t)) end
redis.call('HSET', KEYS[1], 'n', n, 't', t)
redis.call('EXPIRE', KEYS[1], ARGV[5])
return {ok, n, wait}
`)

// decision is the outcome of one rate limit check.
type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// retrySeconds rounds the wait up to whole seconds for Retry-After.
func (d decision) retrySeconds() int {
	return max(1, int(math.Ceil(d.retry.Seconds())))
}

// localLimiter keeps one x/time/rate bucket per key in memory. It is used
// when Redis is not configured or not answering.
type localLimiter struct {
	mu      sync.Mutex
	cfg     config.RateLimitConfig
	buckets map[string]*localBucket
	swept   time.Time
}

type localBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	return &localLimiter{cfg: cfg, buckets: make(map[string]*localBucket)}
}

func (l *localLimiter) allow(key string, now time.Time) decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictIdle(now)

	b := l.buckets[key]
	if b == nil {
		perToken := l.cfg.RefillInterval / time.Duration(l.cfg.RefillTokens)
		b = &localBucket{lim: rate.NewLimiter(rate.Every(perToken), l.cfg.Capacity)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.lim.ReserveN(now, 1)
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return decision{retry: wait}
	}
	return decision{allowed: true, remaining: int64(b.lim.TokensAt(now))}
}

func (l *localLimiter) evictIdle(now time.Time) {
	if now.Sub(l.swept) <= l.cfg.TTL {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.cfg.TTL {
			delete(l.buckets, k)
		}
	}
	l.swept = now
}

// redisAllow runs the bucket script. ok is false when Redis could not
// answer and the caller should fall back to the local limiter.
func redisAllow(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string, now time.Time) (decision, bool, error) {
	out, err := takeToken.Run(ctx, rdb, []string{key},
		cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(),
		now.UnixMilli(), int64(cfg.TTL/time.Second)).Int64Slice()
	if err != nil || len(out) != 3 {
		return decision{}, false, err
	}
	return decision{
		allowed:   out[0] == 1,
		remaining: out[1],
		retry:     time.Duration(out[2]) * time.Millisecond,
	}, true, nil
}

// TokenSubject names the user a session token was issued to. It checks
// only the token itself and reports false when verification fails.
type TokenSubject interface {
	TokenSubject(token string) (uint64, bool)
}

// NewTokenBucket limits requests per key (see RateLimitConfig.KeyStrategy)
// with a token bucket kept in Redis. When Redis is nil or fails, buckets
// are kept in process so the limit still applies to this instance.
//
// It runs before LoadSession, so a limited request never reaches the
// session store. User-keyed strategies take the user from subjects;
// requests without a verifiable token share the "anon" user.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, subjects TokenSubject, log *logrus.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	cfg = cfg.Normalize()
	local := newLocalLimiter(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c, subjects)
			now := time.Now()

			var (
				d  decision
				ok bool
			)
			if rdb != nil {
				var err error
				d, ok, err = redisAllow(c.Request().Context(), rdb, cfg, key, now)
				if !ok && cfg.Debug {
					log.WithError(err).WithField("key", key).Warn("rate limit falling back to local buckets")
				}
			}
			if !ok {
				d = local.allow(key, now)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.allowed {
				return next(c)
			}

			secs := d.retrySeconds()
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.WithFields(logrus.Fields{"key": key, "retry_ms": d.retry.Milliseconds()}).Info("request rate limited")
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too_many_requests",
				"message":     "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

// rateKeyParts lists which request attributes each key strategy uses.
var rateKeyParts = map[string][]string{
	"ip":         {"ip"},
	"user":       {"user"},
	"route":      {"route"},
	"ip_user":    {"ip", "user"},
	"ip_route":   {"ip", "route"},
	"user_route": {"user", "route"},
}

func rateKey(cfg config.RateLimitConfig, c echo.Context, subjects TokenSubject) string {
	parts, ok := rateKeyParts[strings.ToLower(cfg.KeyStrategy)]
	if !ok {
		parts = []string{"ip", "user", "route"}
	}
	var sb strings.Builder
	sb.WriteString(cfg.Prefix)
	for _, p := range parts {
		sb.WriteString(":" + p + ":")
		switch p {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			sb.WriteString(ip)
		case "user":
			sb.WriteString(rateSubject(c, subjects))
		case "route":
			sb.WriteString(c.Request().Method + " " + c.Path())
		}
	}
	return sb.String()
}

func rateSubject(c echo.Context, subjects TokenSubject) string {
	if subjects == nil {
		return "anon"
	}
	tok := SessionToken(c)
	if tok == "" {
		return "anon"
	}
	if id, ok := subjects.TokenSubject(tok); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
