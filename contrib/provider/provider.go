// Package provider builds an agent.LLMClient from a provider name.
package provider

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/contrib/provider/claude"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/contrib/provider/gemini"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/contrib/provider/ollama"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/contrib/provider/openai"
)

const (
	Ollama = "ollama"
	OpenAI = "openai"
	Claude = "claude"
	Gemini = "gemini"
)

// Config selects and configures one provider.
type Config struct {
	Name      string
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
}

// New creates the named provider.
func New(ctx context.Context, cfg Config) (agent.LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case Ollama, "":
		return ollama.New(&ollama.Config{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		}), nil
	case OpenAI:
		return openai.New(&openai.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: int64(cfg.MaxTokens),
			Timeout:   cfg.Timeout,
		}), nil
	case Claude:
		c := claude.DefaultConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.Model != "" {
			c.Model = cfg.Model
		}
		if cfg.MaxTokens > 0 {
			c.MaxTokens = int64(cfg.MaxTokens)
		}
		if cfg.Timeout > 0 {
			c.Timeout = cfg.Timeout
		}
		return claude.New(c), nil
	case Gemini:
		g := gemini.DefaultConfig(cfg.APIKey)
		g.Endpoint = cfg.BaseURL
		if cfg.Model != "" {
			g.Model = cfg.Model
		}
		if cfg.MaxTokens > 0 {
			g.MaxTokens = int32(cfg.MaxTokens)
		}
		if cfg.Timeout > 0 {
			g.Timeout = cfg.Timeout
		}
		return gemini.New(ctx, g)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Name)
	}
}

// Close releases clients that hold resources.
func Close(client agent.LLMClient) error {
	if c, ok := client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
