package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/config"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/contrib/graphstore/inmemory"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/contrib/graphstore/neo4j"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/contrib/provider"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/contrib/tokenizer/tiktoken"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history/store"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware/errorhandler"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware/limiter"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware/logger"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware/recorder"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware/validator"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/logging"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/metrics"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/telemetry"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/agentic"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/runner"
)

const shutdownTimeout = 10 * time.Second

// newLLMClient is swapped out by tests.
var newLLMClient = provider.New

// app owns everything a command needs and releases it in Close.
type app struct {
	cfg      *config.Config
	store    graphstore.Store
	pipeline *agentic.Pipeline
	runner   *runner.Runner
	history  history.Store
	logger   *slog.Logger

	clients  []agent.LLMClient
	metrics  *http.Server
	shutdown func(context.Context) error
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(opts *rootOptions) (*config.Config, bool, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, false, err
	}
	if opts.fixture != "" {
		cfg.Advisor.Fixture = opts.fixture
	}
	if opts.metricsAddr != "" {
		cfg.Advisor.MetricsAddr = opts.metricsAddr
	}
	if opts.programsFromStore {
		cfg.Advisor.ProgramsFromStore = true
	}
	if opts.historyBackend != "" {
		cfg.History.Backend = opts.historyBackend
	}
	demo := opts.demo || cfg.Advisor.Fixture != ""
	if err := cfg.Validate(demo); err != nil {
		return nil, false, err
	}
	return cfg, demo, nil
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, demo, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, cfg, demo)
}

func buildApp(ctx context.Context, cfg *config.Config, demo bool) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logging.WithComponent("advisor")}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.shutdown, err = telemetry.Init(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Disable:     !cfg.Telemetry.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	graph, err := openGraph(ctx, cfg, demo)
	if err != nil {
		return nil, err
	}
	a.store = graph

	clients, err := a.buildClients(ctx)
	if err != nil {
		return nil, err
	}

	opts := []agentic.Option{
		agentic.WithPrograms(cfg.Advisor.Programs...),
		agentic.WithStrictSafety(cfg.Advisor.StrictSafety),
		agentic.WithMaxEvidenceTokens(cfg.Advisor.MaxEvidenceTokens),
		agentic.WithEligibilityCache(cfg.Advisor.EligibilityCache, cfg.Advisor.EligibilityTTL),
	}
	if cfg.Advisor.Tokenizer != "" {
		counter, terr := tiktoken.New(cfg.Advisor.Tokenizer)
		if terr != nil {
			return nil, terr
		}
		opts = append(opts, agentic.WithTokenizer(counter))
	}

	if a.pipeline, err = agentic.NewPipeline(clients, a.store, opts...); err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	if cfg.Advisor.ProgramsFromStore {
		if _, rerr := a.pipeline.RefreshPrograms(ctx); rerr != nil {
			a.logger.Warn("could not load programs from the graph", "error", rerr)
		}
	}

	hist, err := store.Open(ctx, store.Options{
		Backend:    cfg.History.Backend,
		SQLitePath: cfg.History.SQLitePath,
		MaxTurns:   cfg.History.MaxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	a.history = hist

	chain := middleware.NewChain(
		logger.NewRequestLogger(nil),
		errorhandler.NewErrorHandler(nil),
		limiter.NewRateLimiter(cfg.Advisor.RateLimit, cfg.Advisor.RateBurst, true),
		validator.NewInputValidator(validator.QuestionRules(cfg.Advisor.MaxQuestionLength)...),
		recorder.New(a.history),
	)
	a.runner = runner.New(a.pipeline, chain)

	a.serveMetrics(cfg.Advisor.MetricsAddr)
	return a, nil
}

// openGraph returns the in-memory graph in demo mode, Neo4j otherwise.
func openGraph(ctx context.Context, cfg *config.Config, demo bool) (graphstore.Store, error) {
	if demo {
		var (
			s   *inmemory.Store
			err error
		)
		if cfg.Advisor.Fixture != "" {
			s, err = inmemory.Load(cfg.Advisor.Fixture)
		} else {
			s, err = inmemory.Sample()
		}
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := neo4j.New(ctx, &neo4j.Config{
		URI:         cfg.Neo4j.URI,
		User:        cfg.Neo4j.User,
		Password:    cfg.Neo4j.Password,
		Database:    cfg.Neo4j.Database,
		TxTimeout:   cfg.Neo4j.TxTimeout,
		MaxPoolSize: cfg.Neo4j.MaxPoolSize,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// buildClients creates one client per distinct model so stages can run on
// different models against the same provider.
func (a *app) buildClients(ctx context.Context) (agentic.Clients, error) {
	llm := a.cfg.LLM
	byModel := make(map[string]agent.LLMClient)
	get := func(model string) (agent.LLMClient, error) {
		if model == "" {
			model = llm.Model
		}
		if c, ok := byModel[model]; ok {
			return c, nil
		}
		c, err := newLLMClient(ctx, provider.Config{
			Name:      llm.Provider,
			Model:     model,
			BaseURL:   llm.BaseURL,
			APIKey:    llm.APIKey,
			MaxTokens: llm.MaxTokens,
			Timeout:   llm.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s client for %q: %w", llm.Provider, model, err)
		}
		byModel[model] = c
		a.clients = append(a.clients, c)
		return c, nil
	}

	var clients agentic.Clients
	var err error
	if clients.Default, err = get(""); err != nil {
		return clients, err
	}
	if clients.Planner, err = get(llm.PlannerModel); err != nil {
		return clients, err
	}
	if clients.Query, err = get(llm.QueryModel); err != nil {
		return clients, err
	}
	if clients.Answer, err = get(llm.AnswerModel); err != nil {
		return clients, err
	}
	if clients.Verifier, err = get(llm.VerifierModel); err != nil {
		return clients, err
	}
	return clients, nil
}

func (a *app) serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", addr)
}

// Close releases resources in reverse order of creation. Errors are logged.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.metrics != nil {
		_ = a.metrics.Shutdown(ctx)
	}
	if a.history != nil {
		if err := a.history.Close(ctx); err != nil {
			a.logger.Warn("close history", "error", err)
		}
	}
	for _, c := range a.clients {
		if err := provider.Close(c); err != nil {
			a.logger.Warn("close llm client", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Warn("close graph store", "error", err)
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			a.logger.Warn("flush traces", "error", err)
		}
	}
}
