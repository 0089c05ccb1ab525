package adapter

import (
	"context"
	"fmt"
	"time"
)

// Locker guards a periodic sweep across instances. Correctness never depends on it.
type Locker interface {
	// TryLock returns domain.ErrLockHeld when another holder owns key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter is a fixed-window counter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimitKey scopes a RateLimiter counter to one user action.
func RateLimitKey(userID int64, action string) string {
	return fmt.Sprintf("rate_limit:%d:%s", userID, action)
}
