package agentic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/prompt"
)

var (
	codePlaceholder = regexp.MustCompile(`\$code\b`)
	pidPlaceholder  = regexp.MustCompile(`\$pid\b`)
)

// generatedQuery is the shape the query generator is asked to return.
// Some models answer with "query" instead of "cypher".
type generatedQuery struct {
	Cypher string          `json:"cypher"`
	Query  string          `json:"query"`
	Params json.RawMessage `json:"params"`
}

type queryBuilder struct {
	llm         agent.LLMClient
	prompts     *prompt.Manager
	templates   *TemplateRegistry
	temperature float64
	programs    func() []string
}

func newQueryBuilder(llm agent.LLMClient, prompts *prompt.Manager, cfg *Config, programs func() []string) *queryBuilder {
	return &queryBuilder{
		llm:         llm,
		prompts:     prompts,
		templates:   cfg.templates,
		temperature: cfg.QueryTemperature,
		programs:    programs,
	}
}

// Build resolves plan into a query. Templates win whenever they apply; the
// hint only steers generation.
func (b *queryBuilder) Build(ctx context.Context, plan *Plan, question, hint string) (*QuerySpec, error) {
	if spec, ok := b.templates.Render(plan); ok {
		return spec, nil
	}
	if b.llm == nil {
		return nil, fmt.Errorf("query LLM is not configured")
	}

	system, err := renderSystem(b.prompts, prompt.Query, b.programs())
	if err != nil {
		return nil, err
	}
	user := mustJSON(map[string]any{
		"question":      question,
		"plan":          plan,
		"verifier_hint": hint,
	})
	raw, err := agent.Complete(ctx, b.llm, system, user, b.temperature, true)
	if err != nil {
		return nil, fmt.Errorf("query generation failed: %w", err)
	}

	query, params, ok := parseGeneratedQuery(raw)
	if !ok {
		return NewQuerySpec(DefaultQuery, nil, SourceDefault), nil
	}
	patchParams(query, params, plan)
	return NewQuerySpec(query, params, SourceGenerated), nil
}

func parseGeneratedQuery(raw string) (string, map[string]any, bool) {
	out, err := decodeJSON[generatedQuery](raw)
	if err != nil {
		return "", nil, false
	}
	query := strings.TrimSpace(out.Cypher)
	if query == "" {
		query = strings.TrimSpace(out.Query)
	}
	if query == "" {
		return "", nil, false
	}
	params := map[string]any{}
	if len(out.Params) > 0 {
		// A non-object params value is ignored rather than failing the query.
		_ = json.Unmarshal(out.Params, &params)
		if params == nil {
			params = map[string]any{}
		}
	}
	return query, params, true
}

// patchParams fills $code and $pid placeholders the generator left unbound.
func patchParams(query string, params map[string]any, plan *Plan) {
	if codePlaceholder.MatchString(query) && params["code"] == nil {
		if code := plan.CourseCode(); code != "" {
			params["code"] = code
		}
	}
	if pidPlaceholder.MatchString(query) && params["pid"] == nil {
		if pid := plan.ProgramID(); pid != "" {
			params["pid"] = pid
		}
	}
}
