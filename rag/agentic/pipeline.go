package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graph"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/logging"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/metrics"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/telemetry"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/prompt"
)

const advisorStateKey = "__advisor_state"

// EligibilityReason is the verdict reason reported for eligibility turns.
const EligibilityReason = "Eligibility computed from graph."

// Clients groups the LLM clients used by the different pipeline stages.
type Clients struct {
	Default  agent.LLMClient
	Planner  agent.LLMClient
	Query    agent.LLMClient
	Answer   agent.LLMClient
	Verifier agent.LLMClient
}

// Pipeline answers one question at a time against the course graph:
//
//	start -> plan -> route
//	route: eligibility -> end
//	route: loop -> build -> guard -> execute -> answer -> verify -> decide
//	decide: retry -> build | done -> end
//
// Every node in the loop may run at most MaxAttempts times.
type Pipeline struct {
	cfg         *Config
	store       graphstore.Store
	planner     *planner
	builder     *queryBuilder
	gate        *SafetyGate
	writer      *synthesizer
	verifier    *verifier
	eligibility *EligibilityEngine
	graph       *graph.Graph
	logger      *slog.Logger
}

type pipelineState struct {
	Question    string
	Plan        *Plan
	Hint        string
	Attempt     int
	Query       *QuerySpec
	Rows        []graphstore.Row
	Answer      string
	Verdict     *VerifierVerdict
	Attempts    []Attempt
	Eligibility *EligibilityResult
}

// NewPipeline wires the stages around store.
func NewPipeline(clients Clients, store graphstore.Store, opts ...Option) (*Pipeline, error) {
	cfg := applyOptions(nil, opts)
	if store == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	plannerLLM := pickClient(clients.Planner, clients.Default)
	if plannerLLM == nil {
		return nil, fmt.Errorf("planner client is required")
	}
	verifierLLM := pickClient(clients.Verifier, clients.Default)
	if verifierLLM == nil {
		return nil, fmt.Errorf("verifier client is required")
	}

	prompts, err := prompt.NewAdvisorManager(cfg.Prompts)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	gate := NewSafetyGate(cfg.StrictSafety)
	engine, err := NewEligibilityEngine(store, gate, cfg.EligibilityCache, cfg.EligibilityCacheTTL)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:         cfg,
		store:       store,
		gate:        gate,
		eligibility: engine,
		logger:      logging.WithComponent("agentic_pipeline").With("pipeline", cfg.Name),
	}
	p.planner = newPlanner(plannerLLM, prompts, cfg)
	p.builder = newQueryBuilder(pickClient(clients.Query, clients.Default), prompts, cfg, p.planner.Programs)
	p.writer = newSynthesizer(pickClient(clients.Answer, clients.Default), prompts, cfg, p.planner.Programs)
	p.verifier = newVerifier(verifierLLM, prompts, cfg, p.planner.Programs)

	g, err := graph.NewBuilder().
		AddNode("start", graph.NodeTypeStart, p.startNode).
		AddNode("plan", graph.NodeTypeStep, p.planNode).
		AddConditionNode("route", p.route, map[string]string{
			"eligibility": "eligibility",
			"loop":        "build",
		}).
		AddNode("eligibility", graph.NodeTypeStep, p.eligibilityNode).
		AddNode("build", graph.NodeTypeStep, p.buildNode).
		AddNode("guard", graph.NodeTypeStep, p.guardNode).
		AddNode("execute", graph.NodeTypeStep, p.executeNode).
		AddNode("answer", graph.NodeTypeStep, p.answerNode).
		AddNode("verify", graph.NodeTypeStep, p.verifyNode).
		AddConditionNode("decide", p.decide, map[string]string{
			"retry": "build",
			"done":  "end",
		}).
		AddNode("end", graph.NodeTypeEnd, p.endNode).
		AddEdge("start", "plan").
		AddEdge("plan", "route").
		AddEdge("eligibility", "end").
		AddEdge("build", "guard").
		AddEdge("guard", "execute").
		AddEdge("execute", "answer").
		AddEdge("answer", "verify").
		AddEdge("verify", "decide").
		SetStart("start").
		SetEnd("end").
		SetMaxVisits(MaxAttempts).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build pipeline graph: %w", err)
	}
	g.OnVisit(func(ctx context.Context, node string, visit int) {
		p.logger.Debug("node entered", "node", node, "visit", visit)
	})
	p.graph = g

	p.logger.Info("advisor pipeline initialised",
		"programs", strings.Join(cfg.Programs, ","),
		"strict_safety", cfg.StrictSafety,
		"malformed_verdict", cfg.MalformedVerdict,
		"templates", len(cfg.templates.Intents()),
	)
	return p, nil
}

func pickClient(primary, fallback agent.LLMClient) agent.LLMClient {
	if primary != nil {
		return primary
	}
	return fallback
}

// Run answers question. Plan parse failures, safety violations, store errors
// and transport failures abort the turn and are returned as errors.
func (p *Pipeline) Run(ctx context.Context, question string) (resp *Response, err error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question cannot be empty", errorskg.ErrInvalidInput)
	}

	started := time.Now()
	turnID := uuid.NewString()
	ctx, span := telemetry.Start(ctx, "turn",
		attribute.String("advisor.turn_id", turnID),
		attribute.String("advisor.pipeline", p.cfg.Name),
	)
	defer func() { telemetry.End(span, err) }()

	logger := p.logger.With("turn_id", turnID)
	logger.Info("pipeline run started", "question", trimForLog(question, 120))

	st := &pipelineState{Question: question}
	if _, err = p.graph.Execute(ctx, graph.State{advisorStateKey: st}); err != nil {
		metrics.RecordTurn(metrics.OutcomeError, st.Attempt)
		logger.Error("pipeline run failed", "error", err, "attempts", st.Attempt)
		return nil, err
	}

	resp = &Response{
		TurnID:      turnID,
		Question:    question,
		Plan:        st.Plan,
		Query:       st.Query,
		Rows:        st.Rows,
		Answer:      st.Answer,
		Verdict:     st.Verdict,
		Attempts:    st.Attempts,
		Eligibility: st.Eligibility,
		Duration:    time.Since(started),
	}
	if resp.Query == nil {
		resp.Query = &QuerySpec{Params: map[string]any{}}
	}
	if resp.Rows == nil {
		resp.Rows = []graphstore.Row{}
	}

	outcome := string(st.Verdict.Verdict)
	if st.Eligibility != nil {
		outcome = metrics.OutcomeEligibility
	}
	metrics.RecordTurn(outcome, st.Attempt)
	span.SetAttributes(
		attribute.String("advisor.intent", string(st.Plan.Intent)),
		attribute.String("advisor.verdict", string(st.Verdict.Verdict)),
		attribute.Int("advisor.attempts", st.Attempt),
	)
	logger.Info("pipeline run completed",
		"intent", st.Plan.Intent,
		"verdict", st.Verdict.Verdict,
		"attempts", st.Attempt,
		"rows", len(resp.Rows),
		"duration", resp.Duration,
	)
	return resp, nil
}

// CheckEligibility runs the eligibility engine directly, without planning.
func (p *Pipeline) CheckEligibility(ctx context.Context, target string, completed []string) (res *EligibilityResult, err error) {
	ctx, span := telemetry.Start(ctx, "eligibility", attribute.String("advisor.target", target))
	defer func() { telemetry.End(span, err) }()

	res, err = p.eligibility.Check(ctx, target, completed)
	if err != nil {
		return nil, err
	}
	metrics.RecordEligibility(res.Eligible)
	return res, nil
}

// RefreshPrograms replaces the program vocabulary with the identifiers held
// by the store and drops cached prerequisite closures. An empty result keeps
// the current vocabulary.
func (p *Pipeline) RefreshPrograms(ctx context.Context) ([]string, error) {
	spec := NewQuerySpec(ProgramVocabularyQuery, nil, SourceTemplate)
	if err := p.gate.Check(spec); err != nil {
		return nil, err
	}
	rows, err := p.store.RunRead(ctx, spec.Query, spec.Params)
	if err != nil {
		return nil, &errorskg.StoreExecutionError{Query: spec.Query, Err: err}
	}
	p.PurgeCache()
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.String("pid"))
	}
	ids = normalizeCodes(ids)
	if len(ids) == 0 {
		p.logger.Warn("store returned no programs, keeping vocabulary", "programs", strings.Join(p.planner.Programs(), ","))
		return p.planner.Programs(), nil
	}
	p.planner.SetPrograms(ids)
	p.logger.Info("program vocabulary refreshed", "programs", strings.Join(ids, ","))
	return ids, nil
}

// Programs returns the current program vocabulary.
func (p *Pipeline) Programs() []string {
	return p.planner.Programs()
}

// PurgeCache drops cached prerequisite closures.
func (p *Pipeline) PurgeCache() {
	p.eligibility.Purge()
}

// stage runs fn inside a span and records its latency.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	started := time.Now()
	ctx, span := telemetry.Start(ctx, "stage."+name)
	defer func() {
		metrics.ObserveStage(name, time.Since(started).Seconds())
		telemetry.End(span, err)
	}()
	return fn(ctx)
}

func (p *Pipeline) startNode(ctx context.Context, state graph.State) (graph.State, error) {
	_, err := getState(state)
	return state, err
}

func (p *Pipeline) planNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	err = p.stage(ctx, "plan", func(ctx context.Context) error {
		plan, err := p.planner.Plan(ctx, st.Question)
		if err != nil {
			return err
		}
		st.Plan = plan
		return nil
	})
	if err != nil {
		p.logger.Error("planner failed", "error", err)
		return state, err
	}
	p.logger.Info("plan produced",
		"intent", st.Plan.Intent,
		"course_codes", strings.Join(st.Plan.CourseCodes, ","),
		"program_ids", strings.Join(st.Plan.ProgramIDs, ","),
		"target_course", st.Plan.TargetCourse,
	)
	return state, nil
}

func (p *Pipeline) route(ctx context.Context, state graph.State) (string, error) {
	st, err := getState(state)
	if err != nil {
		return "", err
	}
	if st.Plan.Intent == IntentEligibilityCheck && st.Plan.EligibilityTarget() != "" {
		return "eligibility", nil
	}
	return "loop", nil
}

func (p *Pipeline) eligibilityNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	target := st.Plan.EligibilityTarget()
	err = p.stage(ctx, "eligibility", func(ctx context.Context) error {
		res, err := p.eligibility.Check(ctx, target, st.Plan.CompletedCourses)
		if err != nil {
			return err
		}
		st.Eligibility = res
		return nil
	})
	if err != nil {
		p.logger.Error("eligibility check failed", "target", target, "error", err)
		return state, err
	}

	metrics.RecordEligibility(st.Eligibility.Eligible)
	st.Answer = EligibilityAnswer(st.Eligibility)
	st.Verdict = &VerifierVerdict{Verdict: VerdictPass, Reason: EligibilityReason}
	p.logger.Info("eligibility computed",
		"target", target,
		"eligible", st.Eligibility.Eligible,
		"missing", len(st.Eligibility.Missing),
	)
	return state, nil
}

func (p *Pipeline) buildNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	st.Attempt++
	st.Rows = nil
	err = p.stage(ctx, "build", func(ctx context.Context) error {
		spec, err := p.builder.Build(ctx, st.Plan, st.Question, st.Hint)
		if err != nil {
			return err
		}
		st.Query = spec
		return nil
	})
	if err != nil {
		p.logger.Error("query build failed", "attempt", st.Attempt, "error", err)
		return state, err
	}
	metrics.RecordQuery(string(st.Plan.Intent), string(st.Query.Source))
	p.logger.Info("query built",
		"attempt", st.Attempt,
		"source", st.Query.Source,
		"query", trimForLog(st.Query.Query, 200),
		"hint", trimForLog(st.Hint, 120),
	)
	return state, nil
}

func (p *Pipeline) guardNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	if err := p.gate.Check(st.Query); err != nil {
		var violation *errorskg.QuerySafetyViolation
		if errorskg.As(err, &violation) {
			metrics.RecordSafetyViolation(violation.Keyword)
		}
		p.logger.Warn("query rejected by safety gate",
			"attempt", st.Attempt,
			"query", trimForLog(st.Query.Query, 200),
			"error", err,
		)
		return state, err
	}
	return state, nil
}

func (p *Pipeline) executeNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	err = p.stage(ctx, "execute", func(ctx context.Context) error {
		rows, err := p.store.RunRead(ctx, st.Query.Query, st.Query.Params)
		if err != nil {
			return &errorskg.StoreExecutionError{Query: st.Query.Query, Err: err}
		}
		st.Rows = rows
		return nil
	})
	if err != nil {
		p.logger.Error("query execution failed", "attempt", st.Attempt, "error", err)
		return state, err
	}
	p.logger.Info("rows fetched", "attempt", st.Attempt, "count", len(st.Rows))
	p.logger.Debug("rows sample", "rows", graphstore.Summary(st.Rows, 5))
	return state, nil
}

func (p *Pipeline) answerNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	var generated bool
	err = p.stage(ctx, "answer", func(ctx context.Context) error {
		text, gen, err := p.writer.Compose(ctx, st.Plan, st.Question, st.Rows)
		if err != nil {
			return err
		}
		st.Answer = text
		generated = gen
		return nil
	})
	if err != nil {
		p.logger.Error("answer synthesis failed", "attempt", st.Attempt, "error", err)
		return state, err
	}
	p.logger.Debug("answer composed", "attempt", st.Attempt, "generated", generated, "answer", trimForLog(st.Answer, 160))
	return state, nil
}

func (p *Pipeline) verifyNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	err = p.stage(ctx, "verify", func(ctx context.Context) error {
		verdict, err := p.verifier.Verify(ctx, st.Question, st.Rows, st.Answer)
		if err != nil {
			return err
		}
		st.Verdict = verdict
		return nil
	})
	if err != nil {
		p.logger.Error("verification failed", "attempt", st.Attempt, "error", err)
		return state, err
	}

	metrics.RecordVerdict(string(st.Verdict.Verdict), st.Verdict.Malformed)
	st.Attempts = append(st.Attempts, Attempt{
		Number:   st.Attempt,
		Query:    st.Query,
		RowCount: len(st.Rows),
		Answer:   st.Answer,
		Verdict:  st.Verdict,
	})
	level := slog.LevelInfo
	if st.Verdict.Malformed {
		level = slog.LevelWarn
	}
	p.logger.Log(ctx, level, "verdict",
		"attempt", st.Attempt,
		"verdict", st.Verdict.Verdict,
		"reason", trimForLog(st.Verdict.Reason, 160),
		"malformed", st.Verdict.Malformed,
	)
	return state, nil
}

// decide ends the loop on a terminal verdict or an exhausted budget and
// otherwise carries the follow-up hint into the next attempt.
func (p *Pipeline) decide(ctx context.Context, state graph.State) (string, error) {
	st, err := getState(state)
	if err != nil {
		return "", err
	}
	if st.Verdict.Verdict.Terminal() || st.Attempt >= MaxAttempts {
		return "done", nil
	}
	st.Hint = st.Verdict.FollowupHint
	if st.Hint == "" {
		st.Hint = p.cfg.FollowupHint
	}
	return "retry", nil
}

func (p *Pipeline) endNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	if st.Plan == nil || st.Verdict == nil {
		return state, fmt.Errorf("pipeline ended without a verdict")
	}
	return state, nil
}

func getState(state graph.State) (*pipelineState, error) {
	raw, ok := state[advisorStateKey]
	if !ok {
		return nil, fmt.Errorf("advisor state missing in graph")
	}
	ps, ok := raw.(*pipelineState)
	if !ok {
		return nil, fmt.Errorf("invalid advisor state type")
	}
	return ps, nil
}
