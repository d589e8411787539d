package security

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimited is told about every rejected request.
type RateLimited interface {
	TrackRateLimited(route string)
}

// RateLimiter is a fixed-window request counter kept in Redis.
type RateLimiter struct {
	redis    *redis.Client
	window   time.Duration
	observer RateLimited
}

func NewRateLimiter(redisClient *redis.Client, window time.Duration, observer RateLimited) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{redis: redisClient, window: window, observer: observer}
}

// Limit allows at most limit requests per window and client IP on route.
// Redis failures let the request through.
func (r *RateLimiter) Limit(route string, limit int64) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if limit <= 0 {
			return e.Next()
		}

		ctx := e.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", route, e.RemoteIP())

		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			slog.Warn("rate limiter unavailable", "key", key, "error", err)
			return e.Next()
		}
		if count == 1 {
			r.redis.Expire(ctx, key, r.window)
		}
		if count > limit {
			if r.observer != nil {
				r.observer.TrackRateLimited(route)
			}
			return apis.NewTooManyRequestsError("Muitas solicitações. Tente novamente em instantes.", nil)
		}

		return e.Next()
	}
}

// AntiBot rejects requests from crawler-like user agents.
func AntiBot(e *core.RequestEvent) error {
	if isSuspiciousUserAgent(e.Request.UserAgent()) {
		return apis.NewForbiddenError("Access denied", nil)
	}
	return e.Next()
}

func isSuspiciousUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, pattern := range []string{"bot", "crawler", "spider", "scraper"} {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
