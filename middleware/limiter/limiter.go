package limiter

import (
	"fmt"

	"golang.org/x/time/rate"

	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
)

// RateLimiter bounds how many questions reach the pipeline per second.
type RateLimiter struct {
	limiter *rate.Limiter
	wait    bool
}

// NewRateLimiter allows perSecond questions with the given burst. With wait
// set, callers block until a token is free (or their context ends);
// otherwise excess questions fail with ErrRateLimited.
func NewRateLimiter(perSecond float64, burst int, wait bool) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst), wait: wait}
}

// Name returns the middleware name
func (m *RateLimiter) Name() string {
	return "RateLimiter"
}

// Execute takes a token before continuing.
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.wait {
		if err := m.limiter.Wait(ctx.Context()); err != nil {
			return fmt.Errorf("%w: %v", errorskg.ErrRateLimited, err)
		}
		return next(ctx)
	}
	if !m.limiter.Allow() {
		return errorskg.ErrRateLimited
	}
	return next(ctx)
}

// Tokens reports the currently available tokens.
func (m *RateLimiter) Tokens() float64 {
	return m.limiter.Tokens()
}
