package agentic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
)

// EligibilityEngine decides "can I take X" questions from the prerequisite
// closure alone. It never calls a model.
type EligibilityEngine struct {
	store graphstore.Store
	gate  *SafetyGate
	cache *expirable.LRU[string, []CourseRef]
}

// DefaultClosureTTL bounds how long a cached closure is trusted.
const DefaultClosureTTL = 5 * time.Minute

// NewEligibilityEngine caches up to cacheSize closures for ttl; 0 disables the
// cache, which is the default so every check reads the graph.
func NewEligibilityEngine(store graphstore.Store, gate *SafetyGate, cacheSize int, ttl time.Duration) (*EligibilityEngine, error) {
	if store == nil {
		return nil, fmt.Errorf("eligibility engine requires a graph store")
	}
	if gate == nil {
		gate = NewSafetyGate(false)
	}
	e := &EligibilityEngine{store: store, gate: gate}
	if cacheSize > 0 {
		if ttl <= 0 {
			ttl = DefaultClosureTTL
		}
		e.cache = expirable.NewLRU[string, []CourseRef](cacheSize, nil, ttl)
	}
	return e, nil
}

// Check computes eligibility for target given the completed course codes.
func (e *EligibilityEngine) Check(ctx context.Context, target string, completed []string) (*EligibilityResult, error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" {
		return nil, fmt.Errorf("%w: eligibility target course is required", errorskg.ErrInvalidInput)
	}
	prereqs, err := e.Prerequisites(ctx, target)
	if err != nil {
		return nil, err
	}
	return ComputeEligibility(target, prereqs, completed), nil
}

// Prerequisites returns the de-duplicated prerequisite closure of target,
// sorted by code.
func (e *EligibilityEngine) Prerequisites(ctx context.Context, target string) ([]CourseRef, error) {
	if e.cache != nil {
		if refs, ok := e.cache.Get(target); ok {
			return append([]CourseRef(nil), refs...), nil
		}
	}

	spec := NewQuerySpec(PrereqClosureQuery, map[string]any{"code": target}, SourceTemplate)
	if err := e.gate.Check(spec); err != nil {
		return nil, err
	}
	rows, err := e.store.RunRead(ctx, spec.Query, spec.Params)
	if err != nil {
		return nil, &errorskg.StoreExecutionError{Query: spec.Query, Err: err}
	}

	titles := make(map[string]string, len(rows))
	for _, row := range rows {
		code := strings.ToUpper(strings.TrimSpace(row.String("code")))
		if code == "" {
			continue
		}
		if title := row.String("title"); title != "" || titles[code] == "" {
			titles[code] = title
		}
	}
	refs := make([]CourseRef, 0, len(titles))
	for code, title := range titles {
		refs = append(refs, CourseRef{Code: code, Title: title})
	}
	sortRefs(refs)

	if e.cache != nil {
		e.cache.Add(target, append([]CourseRef(nil), refs...))
	}
	return refs, nil
}

// Purge drops every cached closure, e.g. after the graph is re-imported.
func (e *EligibilityEngine) Purge() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// ComputeEligibility returns missing = sorted(prereqs - completed) and
// eligible = len(missing) == 0.
func ComputeEligibility(target string, prereqs []CourseRef, completed []string) *EligibilityResult {
	done := normalizeCodes(completed)
	have := make(map[string]struct{}, len(done))
	for _, code := range done {
		have[code] = struct{}{}
	}

	seen := make(map[string]struct{}, len(prereqs))
	all := make([]CourseRef, 0, len(prereqs))
	missing := make([]CourseRef, 0)
	for _, ref := range prereqs {
		ref.Code = strings.ToUpper(strings.TrimSpace(ref.Code))
		if ref.Code == "" {
			continue
		}
		if _, dup := seen[ref.Code]; dup {
			continue
		}
		seen[ref.Code] = struct{}{}
		all = append(all, ref)
		if _, ok := have[ref.Code]; !ok {
			missing = append(missing, ref)
		}
	}
	sortRefs(all)
	sortRefs(missing)

	return &EligibilityResult{
		Target:        target,
		Eligible:      len(missing) == 0,
		Missing:       missing,
		Prerequisites: all,
		Completed:     done,
	}
}

// EligibilityAnswer renders the user-facing sentence for res.
func EligibilityAnswer(res *EligibilityResult) string {
	if res.Eligible {
		return fmt.Sprintf("Yes — you appear eligible to take %s. (All prerequisites are satisfied based on the graph.)", res.Target)
	}
	codes := make([]string, len(res.Missing))
	for i, m := range res.Missing {
		codes[i] = m.Code
	}
	return fmt.Sprintf("Not yet — to take %s, you're missing: %s.", res.Target, strings.Join(codes, ", "))
}

func sortRefs(refs []CourseRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Code < refs[j].Code })
}
