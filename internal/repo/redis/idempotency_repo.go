package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "idem:payments:"
	// idempotencyInFlight marks a reserved key whose request has not finished.
	idempotencyInFlight = "in_flight"
)

type IdempotencyRepo struct {
	client *goredis.Client
}

func NewIdempotencyRepo(client *goredis.Client) *IdempotencyRepo {
	return &IdempotencyRepo{client: client}
}

// Reserve claims key for one request. When the key is already taken it
// returns reserved=false and the stored result ("" while still in flight).
func (r *IdempotencyRepo) Reserve(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if r.client == nil {
		return "", false, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(key) == "" || ttl <= 0 {
		return "", false, fmt.Errorf("invalid idempotency payload")
	}

	ok, err := r.client.SetNX(ctx, idempotencyKey(key), idempotencyInFlight, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	stored, err := r.client.Get(ctx, idempotencyKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		// expired between SETNX and GET; treat as in flight and let the caller retry
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read idempotency key: %w", err)
	}
	if stored == idempotencyInFlight {
		return "", false, nil
	}
	return stored, false, nil
}

// Complete stores the result for a reserved key.
func (r *IdempotencyRepo) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(key) == "" || strings.TrimSpace(result) == "" || ttl <= 0 {
		return fmt.Errorf("invalid idempotency payload")
	}

	if err := r.client.Set(ctx, idempotencyKey(key), result, ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release frees a reserved key so the request can be retried.
func (r *IdempotencyRepo) Release(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, idempotencyKey(key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func idempotencyKey(key string) string {
	return idempotencyPrefix + key
}
