package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the caller exceeded the configured question rate
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrPlanParse indicates the planner output could not be decoded into a Plan
	ErrPlanParse = errors.New("plan parse error")

	// ErrQuerySafety indicates a query was rejected by the safety gate
	ErrQuerySafety = errors.New("query safety violation")

	// ErrStoreExecution indicates the graph store failed to run a query
	ErrStoreExecution = errors.New("store execution error")
)

// PlanParseError is returned when the classification output does not match the
// Plan schema. It is fatal for the turn.
type PlanParseError struct {
	Raw string
	Err error
}

func (e *PlanParseError) Error() string {
	return fmt.Sprintf("plan parse error: %v", e.Err)
}

func (e *PlanParseError) Unwrap() error { return e.Err }

func (e *PlanParseError) Is(target error) bool { return target == ErrPlanParse }

// QuerySafetyViolation is returned by the safety gate. The offending query is
// never executed.
type QuerySafetyViolation struct {
	Query   string
	Keyword string
	Reason  string
}

func (e *QuerySafetyViolation) Error() string {
	if e.Keyword != "" {
		return fmt.Sprintf("query safety violation: %s (%s)", e.Reason, e.Keyword)
	}
	return fmt.Sprintf("query safety violation: %s", e.Reason)
}

func (e *QuerySafetyViolation) Is(target error) bool { return target == ErrQuerySafety }

// StoreExecutionError wraps a failure reported by the graph store.
type StoreExecutionError struct {
	Query string
	Err   error
}

func (e *StoreExecutionError) Error() string {
	return fmt.Sprintf("store execution error: %v", e.Err)
}

func (e *StoreExecutionError) Unwrap() error { return e.Err }

func (e *StoreExecutionError) Is(target error) bool { return target == ErrStoreExecution }

// Standard helpers, re-exported.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
