package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/trainer-bookings/internal/http/response"
	"github.com/diagnosis/trainer-bookings/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
}

// Counter increments key within a fixed window and returns the new count.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a fixed-window Counter on INCR + EXPIRE.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter provides rate limiting functionality
type RateLimiter struct {
	counter Counter
	config  RateLimitConfig
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(counter Counter, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = IPKeyFunc
	}
	return &RateLimiter{counter: counter, config: config}
}

// Middleware returns the rate limiting middleware. A nil limiter lets every
// request through.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl == nil || rl.counter == nil || rl.config.Requests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range rl.config.KeyFunc(r) {
				if !rl.allow(r.Context(), key) {
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	hashed := fmt.Sprintf("ratelimit:%x", sha256.Sum256([]byte(key)))
	count, err := rl.counter.Incr(ctx, hashed, rl.config.Window)
	if err != nil {
		// fail open
		logger.WarnContext(ctx, "rate limit check failed", "error", err)
		return true
	}
	return count <= int64(rl.config.Requests)
}

// IPKeyFunc limits per client IP and path.
func IPKeyFunc(r *http.Request) []string {
	ip := getClientIP(r)
	if ip == "" {
		return nil
	}
	return []string{"ip:" + ip + ":" + r.URL.Path}
}

// getClientIP extracts the real client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
