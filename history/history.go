// Package history keeps an audit trail of answered questions.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/agentic"
)

// Turn is one recorded question and its outcome.
type Turn struct {
	ID          string    `json:"id" bson:"_id"`
	Question    string    `json:"question" bson:"question"`
	Intent      string    `json:"intent,omitempty" bson:"intent"`
	Query       string    `json:"query,omitempty" bson:"query"`
	QuerySource string    `json:"query_source,omitempty" bson:"query_source"`
	RowCount    int       `json:"row_count" bson:"row_count"`
	Answer      string    `json:"answer,omitempty" bson:"answer"`
	Verdict     string    `json:"verdict,omitempty" bson:"verdict"`
	Reason      string    `json:"reason,omitempty" bson:"reason"`
	Attempts    int       `json:"attempts" bson:"attempts"`
	Error       string    `json:"error,omitempty" bson:"error"`
	DurationMS  int64     `json:"duration_ms" bson:"duration_ms"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Store persists turns. Recent returns newest first.
type Store interface {
	Record(ctx context.Context, turn *Turn) error
	Recent(ctx context.Context, limit int) ([]*Turn, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close(ctx context.Context) error
}

// FromResponse summarises a pipeline outcome. resp may be nil when the turn
// failed before producing one.
func FromResponse(question string, resp *agentic.Response, err error) *Turn {
	turn := &Turn{Question: question}
	if resp != nil {
		turn.ID = resp.TurnID
		turn.RowCount = len(resp.Rows)
		turn.Answer = resp.Answer
		turn.Attempts = len(resp.Attempts)
		turn.DurationMS = resp.Duration.Milliseconds()
		if resp.Plan != nil {
			turn.Intent = string(resp.Plan.Intent)
		}
		if resp.Query != nil {
			turn.Query = resp.Query.Query
			turn.QuerySource = string(resp.Query.Source)
		}
		if resp.Verdict != nil {
			turn.Verdict = string(resp.Verdict.Verdict)
			turn.Reason = resp.Verdict.Reason
		}
	}
	if err != nil {
		turn.Error = err.Error()
	}
	return turn
}

// Prepare fills a missing ID and timestamp. Stores call it before writing.
func Prepare(turn *Turn) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
}
