package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
)

func pass(*middleware.Context) error { return nil }

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within burst", func(t *testing.T) {
		limiter := NewRateLimiter(0.001, 2, false)
		ctx := &middleware.Context{}
		for i := 0; i < 2; i++ {
			if err := limiter.Execute(ctx, pass); err != nil {
				t.Errorf("request %d failed: %v", i, err)
			}
		}
	})

	t.Run("rejects requests exceeding burst", func(t *testing.T) {
		limiter := NewRateLimiter(0.001, 1, false)
		ctx := &middleware.Context{}
		_ = limiter.Execute(ctx, pass)

		called := false
		err := limiter.Execute(ctx, func(*middleware.Context) error {
			called = true
			return nil
		})
		if !errors.Is(err, errorskg.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
		if called {
			t.Error("next must not run when limited")
		}
	})

	t.Run("zero rate disables limiting", func(t *testing.T) {
		limiter := NewRateLimiter(0, 0, false)
		for i := 0; i < 100; i++ {
			if err := limiter.Execute(&middleware.Context{}, pass); err != nil {
				t.Fatalf("request %d limited: %v", i, err)
			}
		}
	})

	t.Run("wait mode honours context cancellation", func(t *testing.T) {
		limiter := NewRateLimiter(0.001, 1, true)
		_ = limiter.Execute(&middleware.Context{}, pass)

		cctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := limiter.Execute(middleware.NewContext(cctx, "q"), pass)
		if !errors.Is(err, errorskg.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("wait mode passes when tokens are available", func(t *testing.T) {
		limiter := NewRateLimiter(1000, 1, true)
		for i := 0; i < 3; i++ {
			if err := limiter.Execute(middleware.NewContext(context.Background(), "q"), pass); err != nil {
				t.Fatalf("request %d failed: %v", i, err)
			}
		}
	})
}
