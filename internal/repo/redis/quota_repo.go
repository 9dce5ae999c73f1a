package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// QuotaRepo keeps fixed submit windows as counters whose TTL is the window.
// The TTL is set when the window opens and never extended.
type QuotaRepo struct {
	client *goredis.Client
}

func NewQuotaRepo(client *goredis.Client) *QuotaRepo {
	return &QuotaRepo{client: client}
}

// IncrementWindow opens the window if needed, counts one action and reports
// the count with the time left, all in one MULTI/EXEC.
func (r *QuotaRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return 0, 0, fmt.Errorf("quota key is required")
	}
	if window <= 0 {
		return 0, 0, fmt.Errorf("quota window must be positive")
	}

	var (
		incr *goredis.IntCmd
		left *goredis.DurationCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		left = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("count submit quota: %w", err)
	}

	return incr.Val(), clampTTL(left.Val()), nil
}

// WindowState reads the window without counting.
func (r *QuotaRepo) WindowState(ctx context.Context, key string) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return 0, 0, fmt.Errorf("quota key is required")
	}

	var (
		count *goredis.StringCmd
		left  *goredis.DurationCmd
	)
	_, err := r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		count = pipe.Get(ctx, key)
		left = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return 0, 0, fmt.Errorf("read submit quota: %w", err)
	}

	n, err := count.Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("parse submit quota: %w", err)
	}
	return n, clampTTL(left.Val()), nil
}

// clampTTL maps the -1/-2 sentinels to zero.
func clampTTL(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
