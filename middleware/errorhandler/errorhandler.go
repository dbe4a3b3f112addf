package errorhandler

import (
	"context"
	"errors"
	"fmt"

	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
)

// Error kinds stored under Metadata["error_kind"].
const (
	KindInvalidInput = "invalid_input"
	KindRateLimited  = "rate_limited"
	KindPlanParse    = "plan_parse"
	KindQuerySafety  = "query_safety"
	KindStore        = "store"
	KindCanceled     = "canceled"
	KindInternal     = "internal"
)

// ErrorHandlerFunc may translate an error; returning nil swallows it.
type ErrorHandlerFunc func(ctx *middleware.Context, err error) error

// ErrorHandler recovers panics from the rest of the chain and classifies
// failures so outer middlewares and callers can report them uniformly.
type ErrorHandler struct {
	handler ErrorHandlerFunc
}

// NewErrorHandler creates an error handling middleware; handler may be nil.
func NewErrorHandler(handler ErrorHandlerFunc) *ErrorHandler {
	return &ErrorHandler{handler: handler}
}

// Name returns the middleware name
func (m *ErrorHandler) Name() string {
	return "ErrorHandler"
}

// Execute runs next, converting a panic into an error.
func (m *ErrorHandler) Execute(ctx *middleware.Context, next middleware.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while answering question: %v", r)
		}
		if err == nil {
			return
		}
		ctx.Metadata["error_kind"] = Classify(err)
		if m.handler != nil {
			err = m.handler(ctx, err)
		}
	}()
	if ctx.Metadata == nil {
		ctx.Metadata = make(map[string]any)
	}
	return next(ctx)
}

// Classify maps an error onto one of the Kind constants.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errorskg.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, errorskg.ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, errorskg.ErrPlanParse):
		return KindPlanParse
	case errors.Is(err, errorskg.ErrQuerySafety):
		return KindQuerySafety
	case errors.Is(err, errorskg.ErrStoreExecution):
		return KindStore
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
