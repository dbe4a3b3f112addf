// Package middleware wraps each advisor question in a chain of handlers:
// logging, error classification, rate limiting, validation and recording.
package middleware

import (
	"context"
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/agentic"
)

// Context carries one question through the chain.
type Context struct {
	// Question as asked; validators may normalise it.
	Question string

	// Response from the pipeline, nil until the final handler ran.
	Response *agentic.Response

	// Error from execution
	Error error

	// Metadata for passing data between middlewares
	Metadata map[string]any

	StartedAt time.Time

	context context.Context
}

// NewContext creates a middleware context for question.
func NewContext(ctx context.Context, question string) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Question:  question,
		Metadata:  make(map[string]any),
		StartedAt: time.Now(),
		context:   ctx,
	}
}

// Context returns the underlying context.Context, Background for a zero
// Context.
func (c *Context) Context() context.Context {
	if c.context == nil {
		return context.Background()
	}
	return c.context
}

// WithContext replaces the underlying context.Context.
func (c *Context) WithContext(ctx context.Context) {
	if ctx != nil {
		c.context = ctx
	}
}

// Middleware intercepts a question on its way to the pipeline.
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging
	Name() string

	// Execute runs the middleware logic. It must call next to continue the
	// chain; returning an error without calling next stops it.
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// Chain is an ordered list of middlewares. The first added runs outermost.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *Chain {
	c := &Chain{}
	for _, m := range middlewares {
		c.Add(m)
	}
	return c
}

// Add appends a middleware; nil is ignored.
func (c *Chain) Add(m Middleware) *Chain {
	if m != nil {
		c.middlewares = append(c.middlewares, m)
	}
	return c
}

// Names lists the middlewares in execution order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.middlewares))
	for i, m := range c.middlewares {
		names[i] = m.Name()
	}
	return names
}

// Execute runs all middlewares and then final. The returned error is also
// stored on ctx.Error.
func (c *Chain) Execute(ctx *Context, final Handler) error {
	err := c.execute(ctx, 0, final)
	ctx.Error = err
	return err
}

func (c *Chain) execute(ctx *Context, index int, final Handler) error {
	if index >= len(c.middlewares) {
		return final(ctx)
	}
	next := func(ctx *Context) error {
		return c.execute(ctx, index+1, final)
	}
	return c.middlewares[index].Execute(ctx, next)
}
