package agentic

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/prompt"
)

var courseCodeRE = regexp.MustCompile(`\b[A-Z]{2,4}\d{3}\b`)

type planner struct {
	llm         agent.LLMClient
	prompts     *prompt.Manager
	temperature float64

	mu        sync.RWMutex
	programs  []string
	programRE *regexp.Regexp
}

func newPlanner(llm agent.LLMClient, prompts *prompt.Manager, cfg *Config) *planner {
	p := &planner{
		llm:         llm,
		prompts:     prompts,
		temperature: cfg.PlannerTemperature,
	}
	p.SetPrograms(cfg.Programs)
	return p
}

// SetPrograms swaps the program vocabulary used by the extractor and prompts.
func (p *planner) SetPrograms(programs []string) {
	norm := normalizeCodes(programs)
	var re *regexp.Regexp
	if len(norm) > 0 {
		quoted := make([]string, len(norm))
		for i, id := range norm {
			quoted[i] = regexp.QuoteMeta(id)
		}
		re = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
	}
	p.mu.Lock()
	p.programs = norm
	p.programRE = re
	p.mu.Unlock()
}

func (p *planner) Programs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.programs...)
}

// extract returns course-code and program candidates found in question,
// first occurrence order, without duplicates.
func (p *planner) extract(question string) ([]string, []string) {
	upper := strings.ToUpper(question)
	courses := uniqueStrings(courseCodeRE.FindAllString(upper, -1))

	p.mu.RLock()
	re := p.programRE
	p.mu.RUnlock()
	programs := []string{}
	if re != nil {
		programs = uniqueStrings(re.FindAllString(upper, -1))
	}
	return courses, programs
}

func (p *planner) Plan(ctx context.Context, question string) (*Plan, error) {
	if p.llm == nil {
		return nil, fmt.Errorf("planner LLM is not configured")
	}

	courses, programs := p.extract(question)
	system, err := renderSystem(p.prompts, prompt.Planner, p.Programs())
	if err != nil {
		return nil, err
	}
	user := mustJSON(map[string]any{
		"question":           question,
		"regex_course_codes": courses,
		"regex_program_ids":  programs,
	})

	raw, err := agent.Complete(ctx, p.llm, system, user, p.temperature, true)
	if err != nil {
		return nil, fmt.Errorf("planner generation failed: %w", err)
	}

	plan, err := decodeValidated[Plan](raw)
	if err != nil {
		return nil, &errorskg.PlanParseError{Raw: raw, Err: err}
	}

	plan.CourseCodes = normalizeCodes(plan.CourseCodes)
	plan.ProgramIDs = normalizeCodes(plan.ProgramIDs)
	plan.CompletedCourses = normalizeCodes(plan.CompletedCourses)
	plan.TargetCourse = strings.ToUpper(strings.TrimSpace(plan.TargetCourse))
	plan.Notes = strings.TrimSpace(plan.Notes)
	if len(plan.CourseCodes) == 0 {
		plan.CourseCodes = append(plan.CourseCodes, courses...)
	}
	if len(plan.ProgramIDs) == 0 {
		plan.ProgramIDs = append(plan.ProgramIDs, programs...)
	}
	return plan, nil
}

func renderSystem(m *prompt.Manager, name string, programs []string) (string, error) {
	list := strings.Join(programs, ", ")
	if list == "" {
		list = "(none known)"
	}
	schema, err := m.Render("schema", map[string]any{"Programs": list})
	if err != nil {
		return "", err
	}
	return m.Render(name, map[string]any{"Schema": schema})
}

// normalizeCodes upper-cases and trims identifiers, dropping blanks and
// repeats. The result is never nil.
func normalizeCodes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, code := range in {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
