package redis

import (
	"context"
	"testing"
	"time"
)

func TestQuotaRepoWindowExpires(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewQuotaRepo(client)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		count, ttl, err := repo.IncrementWindow(ctx, "submit:test", 10*time.Second)
		if err != nil {
			t.Fatalf("increment #%d: %v", i, err)
		}
		if count != int64(i) || ttl <= 0 {
			t.Fatalf("unexpected window #%d: count=%d ttl=%s", i, count, ttl)
		}
	}

	mr.FastForward(11 * time.Second)

	count, _, err := repo.WindowState(ctx, "submit:test")
	if err != nil {
		t.Fatalf("window state: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected expired window, got count=%d", count)
	}
}

func TestQuotaRepoDoesNotExtendWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewQuotaRepo(client)
	ctx := context.Background()

	if _, _, err := repo.IncrementWindow(ctx, "submit:fixed", 10*time.Second); err != nil {
		t.Fatalf("open window: %v", err)
	}
	mr.FastForward(6 * time.Second)

	count, ttl, err := repo.IncrementWindow(ctx, "submit:fixed", 10*time.Second)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 2 {
		t.Fatalf("unexpected count: %d", count)
	}
	if ttl <= 0 || ttl > 4*time.Second {
		t.Fatalf("window was extended: ttl=%s", ttl)
	}

	state, stateTTL, err := repo.WindowState(ctx, "submit:fixed")
	if err != nil {
		t.Fatalf("window state: %v", err)
	}
	if state != 2 || stateTTL <= 0 {
		t.Fatalf("unexpected state: count=%d ttl=%s", state, stateTTL)
	}
}

func TestQuotaRepoRejectsBadInput(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewQuotaRepo(client)
	if _, _, err := repo.IncrementWindow(context.Background(), "", time.Second); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, _, err := repo.IncrementWindow(context.Background(), "k", 0); err == nil {
		t.Fatalf("expected error for zero window")
	}
}
