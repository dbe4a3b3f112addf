package agent

import (
	"context"
	"fmt"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/message"
)

// LLMClient is the generative-completion boundary. Implementations return raw
// model text; callers validate it.
type LLMClient interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest bundles inputs for a non-streaming LLM invocation.
type GenerateRequest struct {
	Messages    []*message.Message
	Temperature float64
	// JSONMode asks the provider for a single JSON object. Nothing enforces the
	// schema at this boundary.
	JSONMode bool
}

// GenerateResponse captures the LLM reply for non-streaming calls.
type GenerateResponse struct {
	Message *message.Message
	Model   string
}

// Text returns the reply text, or "" for an empty response.
func (r *GenerateResponse) Text() string {
	if r == nil {
		return ""
	}
	return r.Message.Text()
}

// Complete sends one system+user exchange and returns the reply text.
func Complete(ctx context.Context, llm LLMClient, system, user string, temperature float64, jsonMode bool) (string, error) {
	if llm == nil {
		return "", fmt.Errorf("llm client is not configured")
	}
	resp, err := llm.Generate(ctx, &GenerateRequest{
		Messages: []*message.Message{
			message.System(system),
			message.User(user),
		},
		Temperature: temperature,
		JSONMode:    jsonMode,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Message == nil {
		return "", fmt.Errorf("llm returned empty response")
	}
	return resp.Text(), nil
}
