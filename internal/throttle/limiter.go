// Package throttle limits repeated failed logins using Redis counters.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited is returned once the failure budget is spent.
	ErrRateLimited = errors.New("too many failed login attempts")
	// ErrUnavailable wraps Redis failures.
	ErrUnavailable = errors.New("throttle backend unavailable")
)

// Config holds limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// Limiter counts login attempts per username and per client IP. Counters
// expire Cooldown after the first attempt in a window.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: client, config: cfg}
}

// Reserve counts an attempt against the username and client IP before the
// password is checked. It returns ErrRateLimited once either counter exceeds
// MaxAttempts, so concurrent guesses cannot all slip past a read-only check.
func (l *Limiter) Reserve(ctx context.Context, username, ip string) error {
	for _, key := range l.keys(username, ip) {
		if err := l.reserveKey(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the username counter after a successful login and hands the
// attempt back to the IP counter. The rest of the IP counter is left alone so
// one good account cannot launder guesses against others.
func (l *Limiter) Reset(ctx context.Context, username, ip string) error {
	if err := l.redis.Del(ctx, userKey(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ip == "" {
		return nil
	}
	count, err := l.redis.Decr(ctx, ipKey(ip)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count <= 0 {
		if err := l.redis.Del(ctx, ipKey(ip)).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

func (l *Limiter) reserveKey(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Attempts returns the current attempt count for username.
func (l *Limiter) Attempts(ctx context.Context, username string) (int, error) {
	count, err := l.redis.Get(ctx, userKey(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(count), nil
}

func (l *Limiter) keys(username, ip string) []string {
	keys := []string{userKey(username)}
	if ip != "" {
		keys = append(keys, ipKey(ip))
	}
	return keys
}

func userKey(username string) string {
	return "login:user:" + strings.ToLower(username)
}

func ipKey(ip string) string {
	return "login:ip:" + ip
}
