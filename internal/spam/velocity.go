package spam

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// VelocityLimiter counts submissions per sender in a fixed window.
type VelocityLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewVelocityLimiter(client *redis.Client, limit int, window time.Duration) *VelocityLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	return &VelocityLimiter{redis: client, limit: limit, window: window}
}

func velocityKey(email, ip string) string {
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		return "velocity:intake:email:" + email
	}
	if ip = strings.TrimSpace(ip); ip != "" {
		return "velocity:intake:ip:" + ip
	}
	return ""
}

// Exceeded increments the sender's counter and reports whether it is now
// over the limit. Errors are returned to the caller, which fails open.
func (v *VelocityLimiter) Exceeded(ctx context.Context, email, ip string) (bool, int, error) {
	key := velocityKey(email, ip)
	if key == "" {
		return false, 0, nil
	}
	count, err := v.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	// Set expiry only on first increment
	if count == 1 {
		if err := v.redis.Expire(ctx, key, v.window).Err(); err != nil {
			return false, int(count), err
		}
	}
	return int(count) > v.limit, int(count), nil
}
