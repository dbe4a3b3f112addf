package errorhandler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
)

func TestErrorHandler(t *testing.T) {
	t.Run("passes success through", func(t *testing.T) {
		ctx := middleware.NewContext(context.Background(), "q")
		if err := NewErrorHandler(nil).Execute(ctx, func(*middleware.Context) error { return nil }); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if _, ok := ctx.Metadata["error_kind"]; ok {
			t.Error("error_kind must not be set on success")
		}
	})

	t.Run("classifies and translates errors", func(t *testing.T) {
		var seen error
		h := NewErrorHandler(func(ctx *middleware.Context, err error) error {
			seen = err
			return fmt.Errorf("wrapped: %w", err)
		})
		ctx := middleware.NewContext(context.Background(), "q")
		cause := &errorskg.StoreExecutionError{Query: "MATCH (n) RETURN n", Err: errors.New("timeout")}

		err := h.Execute(ctx, func(*middleware.Context) error { return cause })
		if !strings.HasPrefix(err.Error(), "wrapped:") || !errors.Is(err, errorskg.ErrStoreExecution) {
			t.Errorf("unexpected error %v", err)
		}
		if seen != cause || ctx.Metadata["error_kind"] != KindStore {
			t.Errorf("handler saw %v, kind %v", seen, ctx.Metadata["error_kind"])
		}
	})

	t.Run("recovers panics", func(t *testing.T) {
		ctx := &middleware.Context{}
		err := NewErrorHandler(nil).Execute(ctx, func(*middleware.Context) error { panic("boom") })
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Fatalf("expected recovered panic, got %v", err)
		}
		if ctx.Metadata["error_kind"] != KindInternal {
			t.Errorf("kind = %v", ctx.Metadata["error_kind"])
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("x: %w", errorskg.ErrInvalidInput), KindInvalidInput},
		{errorskg.ErrRateLimited, KindRateLimited},
		{&errorskg.PlanParseError{Raw: "{", Err: errors.New("eof")}, KindPlanParse},
		{&errorskg.QuerySafetyViolation{Query: "CREATE (n)", Keyword: "CREATE", Reason: "blocked keyword"}, KindQuerySafety},
		{context.DeadlineExceeded, KindCanceled},
		{errors.New("other"), KindInternal},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
