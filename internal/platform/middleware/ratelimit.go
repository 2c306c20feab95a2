package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/juju/ratelimit"
	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// bucketStore keeps one token bucket per client IP. Buckets idle for longer
// than the cleanup window are dropped to bound memory.
type bucketStore struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	cfg     RateLimitConfig
}

type clientBucket struct {
	bucket   *ratelimit.Bucket
	lastSeen time.Time
}

const bucketIdleWindow = 10 * time.Minute

func newBucketStore(cfg RateLimitConfig) *bucketStore {
	return &bucketStore{
		buckets: make(map[string]*clientBucket),
		cfg:     cfg,
	}
}

func (s *bucketStore) get(ip string) *ratelimit.Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.buckets[ip]
	if !ok {
		cb = &clientBucket{
			bucket: ratelimit.NewBucketWithRate(s.cfg.RequestsPerSecond, int64(s.cfg.BurstSize)),
		}
		s.buckets[ip] = cb
	}
	cb.lastSeen = time.Now()

	if len(s.buckets) > 1024 {
		s.evictIdle()
	}
	return cb.bucket
}

func (s *bucketStore) evictIdle() {
	cutoff := time.Now().Add(-bucketIdleWindow)
	for ip, cb := range s.buckets {
		if cb.lastSeen.Before(cutoff) {
			delete(s.buckets, ip)
		}
	}
}

// RateLimit returns middleware enforcing a per-client-IP token bucket.
// Rejected requests receive HTTP 429 with a Retry-After hint.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultRateLimitConfig()
	}
	store := newBucketStore(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			bucket := store.get(c.RealIP())
			if bucket.TakeAvailable(1) == 0 {
				c.Response().Header().Set("Retry-After", strconv.Itoa(1))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
