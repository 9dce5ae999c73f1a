package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/repo"
)

func TestEscapeLikeQuotesWildcards(t *testing.T) {
	cases := map[string]string{
		"Aung":     "Aung",
		"50%":      `50\%`,
		"a_b":      `a\_b`,
		`back\sl`:  `back\\sl`,
		"09%_7\\x": `09\%\_7\\x`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Fatalf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewStoreWithoutPoolFailsFast(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.GetCourse(context.Background(), uuid.New()); err == nil {
		t.Fatalf("expected error without a pool")
	}
}

func TestWithinTxWithoutPoolFailsBeforeCallingFn(t *testing.T) {
	called := false
	err := NewStore(nil).WithinTx(context.Background(), func(context.Context, repo.Store) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected error without calling fn: err=%v called=%v", err, called)
	}
}
