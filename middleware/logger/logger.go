package logger

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/logging"
)

const maxQuestionLog = 200

// RequestLogger logs each question and its outcome.
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger creates a logging middleware. A nil logger uses the
// shared "middleware" component logger.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.WithComponent("middleware")
	}
	return &RequestLogger{logger: logger}
}

// Name returns the middleware name
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs before and after the rest of the chain.
func (m *RequestLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := time.Now()
	m.logger.Info("question received", "question", clip(ctx.Question))

	err := next(ctx)

	attrs := []any{"duration_ms", time.Since(start).Milliseconds()}
	if resp := ctx.Response; resp != nil {
		attrs = append(attrs, "turn_id", resp.TurnID, "attempts", len(resp.Attempts), "rows", len(resp.Rows))
		if resp.Plan != nil {
			attrs = append(attrs, "intent", resp.Plan.Intent)
		}
		if resp.Verdict != nil {
			attrs = append(attrs, "verdict", resp.Verdict.Verdict)
		}
	}
	if kind, ok := ctx.Metadata["error_kind"]; ok {
		attrs = append(attrs, "error_kind", kind)
	}
	if err != nil {
		m.logger.Warn("question failed", append(attrs, "error", err)...)
		return err
	}
	m.logger.Info("question answered", attrs...)
	return nil
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxQuestionLog {
		return s
	}
	r := []rune(s)
	return string(r[:maxQuestionLog]) + "..."
}
