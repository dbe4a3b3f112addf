package agentic

import (
	"context"
	"fmt"
	"strings"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/prompt"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/tokenizer"
)

type synthesizer struct {
	llm         agent.LLMClient
	prompts     *prompt.Manager
	temperature float64
	counter     tokenizer.Counter
	maxTokens   int
	programs    func() []string
}

func newSynthesizer(llm agent.LLMClient, prompts *prompt.Manager, cfg *Config, programs func() []string) *synthesizer {
	return &synthesizer{
		llm:         llm,
		prompts:     prompts,
		temperature: cfg.AnswerTemperature,
		counter:     cfg.counter,
		maxTokens:   cfg.MaxEvidenceTokens,
		programs:    programs,
	}
}

// Compose answers from rows. The second result reports whether generation
// was used.
func (s *synthesizer) Compose(ctx context.Context, plan *Plan, question string, rows []graphstore.Row) (string, bool, error) {
	if text, ok := FormatAnswer(plan, rows); ok {
		return text, false, nil
	}
	if len(rows) == 0 {
		return GenericNotFound, false, nil
	}
	if s.llm == nil {
		return "", false, fmt.Errorf("answer LLM is not configured")
	}

	system, err := renderSystem(s.prompts, prompt.Answer, s.programs())
	if err != nil {
		return "", false, err
	}
	evidence, dropped := capRows(rows, s.counter, s.maxTokens)
	b := prompt.NewBuilder().
		AddField("Question", question).
		AddField("Intent", string(plan.Intent)).
		AddField("Evidence rows", mustJSON(evidence))
	if dropped > 0 {
		b.AddFormat("(%d more rows omitted)", dropped)
	}
	user := b.AddLine("").Add("Answer ONLY in natural language.").Build()

	text, err := agent.Complete(ctx, s.llm, system, user, s.temperature, false)
	if err != nil {
		return "", true, fmt.Errorf("answer generation failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return GenericNotFound, true, nil
	}
	return text, true, nil
}
