// Package claude adapts the Anthropic Messages API to agent.LLMClient.
package claude

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/message"
)

// jsonInstruction is appended to the system prompt in JSON mode; the
// Messages API has no response_format switch.
const jsonInstruction = "Respond with a single JSON object and nothing else."

// Config holds Claude provider configuration
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
	Timeout   time.Duration
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey, baseURL string) *Config {
	return &Config{
		APIKey:    apiKey,
		BaseURL:   baseURL,
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 1024,
		Timeout:   120 * time.Second,
	}
}

// Provider implements agent.LLMClient for Claude.
type Provider struct {
	config *Config
	client anthropic.Client
}

var _ agent.LLMClient = (*Provider)(nil)

// New creates a new Claude provider using official SDK
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("", "")
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5-20250929"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}

	options := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithAuthToken(""),
	}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		options = append(options, option.WithHTTPClient(&http.Client{Timeout: config.Timeout}))
	}

	return &Provider{
		config: config,
		client: anthropic.NewClient(options...),
	}
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.config.Model
}

// Generate implements agent.LLMClient.
func (p *Provider) Generate(ctx context.Context, req *agent.GenerateRequest) (*agent.GenerateResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}

	system, rest := message.SplitSystem(req.Messages)
	if req.JSONMode {
		system = strings.TrimSpace(system + "\n" + jsonInstruction)
	}

	conversation := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		switch msg.Role {
		case message.RoleUser:
			conversation = append(conversation, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case message.RoleAssistant:
			conversation = append(conversation, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.config.Model),
		Messages:    conversation,
		MaxTokens:   p.config.MaxTokens,
		Temperature: param.NewOpt(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &agent.GenerateResponse{
		Message: message.NewMessage(message.RoleAssistant, text.String()),
		Model:   string(resp.Model),
	}, nil
}
