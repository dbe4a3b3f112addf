package errors

import (
	"fmt"
	"io"
	"testing"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"plan", &PlanParseError{Raw: "{", Err: io.ErrUnexpectedEOF}, ErrPlanParse},
		{"safety", &QuerySafetyViolation{Query: "CREATE (n)", Keyword: "CREATE", Reason: "blocked keyword"}, ErrQuerySafety},
		{"store", &StoreExecutionError{Query: "MATCH (n) RETURN n", Err: io.EOF}, ErrStoreExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("turn failed: %w", tt.err)
			if !Is(wrapped, tt.sentinel) {
				t.Fatalf("expected %v to match %v", wrapped, tt.sentinel)
			}
		})
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	err := fmt.Errorf("ask: %w", &StoreExecutionError{Err: io.ErrClosedPipe})
	if !Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected cause to be reachable")
	}
	var target *StoreExecutionError
	if !As(err, &target) {
		t.Fatalf("expected As to find StoreExecutionError")
	}
}
