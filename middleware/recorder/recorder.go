// Package recorder writes each answered (or failed) question to a history
// store after the rest of the chain has run.
package recorder

import (
	"context"
	"log/slog"
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/logging"
)

const recordTimeout = 5 * time.Second

// Recorder is the history middleware. Store failures are logged and never
// change the outcome of the question.
type Recorder struct {
	store  history.Store
	logger *slog.Logger
}

// New creates a recorder; a nil store makes it a pass-through.
func New(store history.Store) *Recorder {
	return &Recorder{store: store, logger: logging.WithComponent("history")}
}

// Name returns the middleware name
func (m *Recorder) Name() string {
	return "Recorder"
}

// Execute runs next and records the outcome.
func (m *Recorder) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := next(ctx)
	if m.store == nil {
		return err
	}

	turn := history.FromResponse(ctx.Question, ctx.Response, err)
	if turn.DurationMS == 0 && !ctx.StartedAt.IsZero() {
		turn.DurationMS = time.Since(ctx.StartedAt).Milliseconds()
	}

	// The caller's context may already be cancelled; record regardless.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Context()), recordTimeout)
	defer cancel()
	if rerr := m.store.Record(rctx, turn); rerr != nil {
		m.logger.Warn("failed to record turn", "turn_id", turn.ID, "error", rerr)
	} else {
		if ctx.Metadata == nil {
			ctx.Metadata = make(map[string]any)
		}
		ctx.Metadata["history_id"] = turn.ID
	}
	return err
}
