package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/message"
)

type recordingLLM struct {
	last *GenerateRequest
	resp *GenerateResponse
	err  error
}

func (r *recordingLLM) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	r.last = req
	return r.resp, r.err
}

func TestCompleteBuildsSystemAndUserMessages(t *testing.T) {
	llm := &recordingLLM{resp: &GenerateResponse{Message: message.NewMessage(message.RoleAssistant, " {\"ok\":true} ")}}

	out, err := Complete(context.Background(), llm, "sys", "user", 0.2, true)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected output %q", out)
	}
	if len(llm.last.Messages) != 2 || llm.last.Messages[0].Role != message.RoleSystem || llm.last.Messages[1].Role != message.RoleUser {
		t.Fatalf("unexpected messages %#v", llm.last.Messages)
	}
	if !llm.last.JSONMode || llm.last.Temperature != 0.2 {
		t.Fatalf("request flags not forwarded: %#v", llm.last)
	}
}

func TestCompleteErrors(t *testing.T) {
	if _, err := Complete(context.Background(), nil, "s", "u", 0, false); err == nil {
		t.Fatal("expected error for nil client")
	}
	boom := errors.New("boom")
	if _, err := Complete(context.Background(), &recordingLLM{err: boom}, "s", "u", 0, false); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if _, err := Complete(context.Background(), &recordingLLM{resp: &GenerateResponse{}}, "s", "u", 0, false); err == nil {
		t.Fatal("expected error for empty response")
	}
}
