package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles OTP requests with short-TTL redis keys, one per
// email and one per client IP.
type RateLimiter struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRateLimiter(redisURL string, window time.Duration) (*RateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RateLimiter{rdb: rdb, window: window}, nil
}

// Allow reserves a slot for the email/IP pair. When either key is still
// present the request is rejected and the longest remaining TTL is returned.
func (l *RateLimiter) Allow(ctx context.Context, email, ip string) (bool, time.Duration, error) {
	keys := []string{"otp_rate:email:" + email}
	if ip != "" {
		keys = append(keys, "otp_rate:ip:"+ip)
	}

	var maxTTL time.Duration
	for _, key := range keys {
		ttl, err := l.rdb.TTL(ctx, key).Result()
		if err != nil {
			return false, 0, err
		}
		if ttl > maxTTL {
			maxTTL = ttl
		}
	}
	if maxTTL > 0 {
		return false, maxTTL, nil
	}

	for _, key := range keys {
		if err := l.rdb.Set(ctx, key, time.Now().UTC().Unix(), l.window).Err(); err != nil {
			return false, 0, err
		}
	}
	return true, 0, nil
}

func (l *RateLimiter) Close() error {
	return l.rdb.Close()
}
