package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter is a fixed-window counter per scope and subject.
type Limiter struct {
	store  WindowStore
	scope  string
	limit  int
	window time.Duration
}

func NewLimiter(store WindowStore, scope string, limit int, window time.Duration) *Limiter {
	if limit < 0 {
		limit = 0
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Limiter{
		store:  store,
		scope:  strings.TrimSpace(scope),
		limit:  limit,
		window: window,
	}
}

// Allow counts one action for subject. A zero limit disables the check.
func (l *Limiter) Allow(ctx context.Context, subject string) (int64, bool, error) {
	if strings.TrimSpace(subject) == "" {
		return 0, false, fmt.Errorf("invalid rate subject")
	}
	if l.limit == 0 {
		return 0, true, nil
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, l.key(subject), l.window)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.limit) {
		return ceilSeconds(ttl), false, nil
	}
	return 0, true, nil
}

// RetryAfter reports how long subject must wait without counting an action.
func (l *Limiter) RetryAfter(ctx context.Context, subject string) (int64, error) {
	if strings.TrimSpace(subject) == "" {
		return 0, fmt.Errorf("invalid rate subject")
	}
	if l.limit == 0 {
		return 0, nil
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.WindowState(ctx, l.key(subject))
	if err != nil {
		return 0, err
	}
	if count >= int64(l.limit) {
		return ceilSeconds(ttl), nil
	}
	return 0, nil
}

func (l *Limiter) key(subject string) string {
	return "rate:" + l.scope + ":" + subject
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
