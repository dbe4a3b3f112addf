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

// verifierOutput accepts the documented keys plus the short hint alias.
type verifierOutput struct {
	Verdict            *string `json:"verdict"`
	Reason             *string `json:"reason"`
	FollowupCypherHint *string `json:"followup_cypher_hint"`
	FollowupHint       *string `json:"followup_hint"`
}

type verifier struct {
	llm         agent.LLMClient
	prompts     *prompt.Manager
	temperature float64
	fallback    Verdict
	counter     tokenizer.Counter
	maxTokens   int
	programs    func() []string
}

func newVerifier(llm agent.LLMClient, prompts *prompt.Manager, cfg *Config, programs func() []string) *verifier {
	return &verifier{
		llm:         llm,
		prompts:     prompts,
		temperature: cfg.VerifierTemperature,
		fallback:    cfg.MalformedVerdict,
		counter:     cfg.counter,
		maxTokens:   cfg.MaxEvidenceTokens,
		programs:    programs,
	}
}

// Verify judges answer against rows. Undecodable output is recovered into
// the configured fallback verdict; only transport failures are errors.
func (v *verifier) Verify(ctx context.Context, question string, rows []graphstore.Row, answer string) (*VerifierVerdict, error) {
	if v.llm == nil {
		return nil, fmt.Errorf("verifier LLM is not configured")
	}
	system, err := renderSystem(v.prompts, prompt.Verifier, v.programs())
	if err != nil {
		return nil, err
	}
	evidence, _ := capRows(rows, v.counter, v.maxTokens)
	if evidence == nil {
		evidence = []graphstore.Row{}
	}
	user := mustJSON(map[string]any{
		"question": question,
		"rows":     evidence,
		"answer":   answer,
	})

	raw, err := agent.Complete(ctx, v.llm, system, user, v.temperature, true)
	if err != nil {
		return nil, fmt.Errorf("verifier generation failed: %w", err)
	}
	return parseVerdict(raw, v.fallback), nil
}

func parseVerdict(raw string, fallback Verdict) *VerifierVerdict {
	if !fallback.Valid() || fallback == VerdictFail {
		fallback = VerdictPass
	}
	out, err := decodeJSON[verifierOutput](raw)
	if err != nil || out.Verdict == nil {
		return &VerifierVerdict{
			Verdict:   fallback,
			Reason:    fmt.Sprintf("Verifier output was malformed; defaulted to %s.", fallback),
			Malformed: true,
		}
	}

	verdict := &VerifierVerdict{Verdict: Verdict(strings.ToLower(strings.TrimSpace(*out.Verdict)))}
	if out.Reason != nil {
		verdict.Reason = strings.TrimSpace(*out.Reason)
	}
	switch {
	case out.FollowupCypherHint != nil:
		verdict.FollowupHint = strings.TrimSpace(*out.FollowupCypherHint)
	case out.FollowupHint != nil:
		verdict.FollowupHint = strings.TrimSpace(*out.FollowupHint)
	}
	if !verdict.Verdict.Valid() {
		verdict.Reason = fmt.Sprintf("Verifier returned unknown verdict %q; defaulted to %s.", *out.Verdict, fallback)
		verdict.Verdict = fallback
		verdict.Malformed = true
	}
	return verdict
}
