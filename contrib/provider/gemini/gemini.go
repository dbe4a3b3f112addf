// Package gemini adapts Google's Gemini API to agent.LLMClient.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/message"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey    string
	Model     string
	Endpoint  string
	MaxTokens int32
	Timeout   time.Duration
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:    apiKey,
		Model:     "gemini-1.5-flash",
		MaxTokens: 1024,
		Timeout:   120 * time.Second,
	}
}

// Provider implements agent.LLMClient for Google Gemini.
type Provider struct {
	config *Config
	client *genai.Client
}

var _ agent.LLMClient = (*Provider)(nil)

// New creates a Gemini provider. The client is long-lived; call Close when done.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.config.Model
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Generate implements agent.LLMClient.
func (p *Provider) Generate(ctx context.Context, req *agent.GenerateRequest) (*agent.GenerateResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	model := p.client.GenerativeModel(p.config.Model)
	model.SetTemperature(float32(req.Temperature))
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(p.config.MaxTokens)
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	system, rest := message.SplitSystem(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(rest) == 0 {
		return nil, fmt.Errorf("gemini request has no user content")
	}

	chat := model.StartChat()
	for _, msg := range rest[:len(rest)-1] {
		chat.History = append(chat.History, &genai.Content{
			Role:  roleFor(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(rest[len(rest)-1].Content))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	return &agent.GenerateResponse{
		Message: message.NewMessage(message.RoleAssistant, responseText(resp)),
		Model:   p.config.Model,
	}, nil
}

func roleFor(role message.Role) string {
	if role == message.RoleAssistant {
		return "model"
	}
	return "user"
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
