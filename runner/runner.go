// Package runner serialises questions onto a single advisor pipeline and
// runs the middleware chain around each one.
package runner

import (
	"context"
	"fmt"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/agentic"
)

// Pipeline is the part of *agentic.Pipeline the runner drives.
type Pipeline interface {
	Run(ctx context.Context, question string) (*agentic.Response, error)
	CheckEligibility(ctx context.Context, target string, completed []string) (*agentic.EligibilityResult, error)
}

var _ Pipeline = (*agentic.Pipeline)(nil)

// Runner admits one question at a time to the pipeline.
type Runner struct {
	pipeline  Pipeline
	chain     *middleware.Chain
	semaphore chan struct{}
}

// New creates a runner. A nil chain runs the pipeline bare.
func New(pipeline Pipeline, chain *middleware.Chain) *Runner {
	if chain == nil {
		chain = middleware.NewChain()
	}
	return &Runner{
		pipeline:  pipeline,
		chain:     chain,
		semaphore: make(chan struct{}, 1),
	}
}

// acquire waits for the pipeline slot or for ctx to end.
func (r *Runner) acquire(ctx context.Context) (func(), error) {
	select {
	case r.semaphore <- struct{}{}:
		return func() { <-r.semaphore }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ask answers one question through the middleware chain.
func (r *Runner) Ask(ctx context.Context, question string) (*agentic.Response, error) {
	mctx := middleware.NewContext(ctx, question)
	err := r.Do(mctx)
	return mctx.Response, err
}

// Do runs the chain for a prepared middleware context, leaving the
// response and metadata on it.
func (r *Runner) Do(mctx *middleware.Context) error {
	return r.chain.Execute(mctx, func(c *middleware.Context) error {
		release, err := r.acquire(c.Context())
		if err != nil {
			return err
		}
		defer release()

		resp, err := r.pipeline.Run(c.Context(), c.Question)
		c.Response = resp
		return err
	})
}

// CheckEligibility runs the eligibility engine directly, bypassing the
// question chain but not the pipeline slot.
func (r *Runner) CheckEligibility(ctx context.Context, target string, completed []string) (*agentic.EligibilityResult, error) {
	release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return r.pipeline.CheckEligibility(ctx, target, completed)
}

// BatchResult is the outcome of one batch question.
type BatchResult struct {
	Index    int
	Question string
	Response *agentic.Response
	Error    error
}

// RunBatch answers questions one after another. A failed question does
// not stop the batch; a cancelled ctx marks the remaining ones failed.
func (r *Runner) RunBatch(ctx context.Context, questions []string) []*BatchResult {
	results := make([]*BatchResult, len(questions))
	for i, q := range questions {
		res := &BatchResult{Index: i, Question: q}
		results[i] = res
		if err := ctx.Err(); err != nil {
			res.Error = fmt.Errorf("batch cancelled: %w", err)
			continue
		}
		res.Response, res.Error = r.Ask(ctx, q)
	}
	return results
}

// Failed counts results carrying an error.
func Failed(results []*BatchResult) int {
	n := 0
	for _, res := range results {
		if res.Error != nil {
			n++
		}
	}
	return n
}
