package agentic

import (
	"strings"
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/tokenizer"
)

// MaxAttempts is the build/execute/answer/verify budget per question.
const MaxAttempts = 2

// DefaultFollowupHint is fed to the second attempt when the verifier asks for
// more evidence without saying what.
const DefaultFollowupHint = "Retrieve more relevant course/program nodes and relationships."

// DefaultPrograms is the program vocabulary used until the store is consulted.
var DefaultPrograms = []string{"MSDS", "BSCS", "BASTAT"}

// Config controls behaviour of the advisor pipeline.
type Config struct {
	Name                string   // Logical name for tracing/logging
	Programs            []string // Program identifiers recognised in questions
	StrictSafety        bool     // Token-level safety checks instead of substring matching
	FollowupHint        string   // Hint used when needs_more arrives without one
	MalformedVerdict    Verdict  // Verdict substituted for undecodable verifier output
	PlannerTemperature  float64
	QueryTemperature    float64
	AnswerTemperature   float64
	VerifierTemperature float64
	MaxEvidenceTokens   int           // Token budget for rows embedded in prompts
	EligibilityCache    int           // Prerequisite closures kept in memory; 0 disables caching
	EligibilityCacheTTL time.Duration // Lifetime of a cached closure

	Prompts map[string]string // Overrides keyed by prompt name

	counter   tokenizer.Counter
	templates *TemplateRegistry
}

// Option customises the pipeline configuration.
type Option func(*Config)

// WithName sets the pipeline name used in logs and spans.
func WithName(name string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(name) != "" {
			cfg.Name = name
		}
	}
}

// WithPrograms replaces the program vocabulary.
func WithPrograms(programs ...string) Option {
	return func(cfg *Config) {
		if norm := normalizeCodes(programs); len(norm) > 0 {
			cfg.Programs = norm
		}
	}
}

// WithStrictSafety switches the safety gate to token matching.
func WithStrictSafety(enabled bool) Option {
	return func(cfg *Config) {
		cfg.StrictSafety = enabled
	}
}

// WithFollowupHint overrides the default hint for a second attempt.
func WithFollowupHint(hint string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(hint) != "" {
			cfg.FollowupHint = hint
		}
	}
}

// WithMalformedVerdict chooses what undecodable verifier output becomes.
// Only pass and needs_more are accepted.
func WithMalformedVerdict(v Verdict) Option {
	return func(cfg *Config) {
		if v == VerdictPass || v == VerdictNeedsMore {
			cfg.MalformedVerdict = v
		}
	}
}

// WithAnswerTemperature sets the sampling temperature of the answer fallback.
func WithAnswerTemperature(t float64) Option {
	return func(cfg *Config) {
		if t >= 0 && t <= 2 {
			cfg.AnswerTemperature = t
		}
	}
}

// WithMaxEvidenceTokens caps how much of the evidence is embedded in prompts.
func WithMaxEvidenceTokens(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxEvidenceTokens = n
		}
	}
}

// WithTokenizer plugs in a token counter for the evidence budget.
func WithTokenizer(c tokenizer.Counter) Option {
	return func(cfg *Config) {
		if c != nil {
			cfg.counter = c
		}
	}
}

// WithPrompt overrides one of the named system prompts.
func WithPrompt(name, content string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(content) == "" {
			return
		}
		if cfg.Prompts == nil {
			cfg.Prompts = make(map[string]string)
		}
		cfg.Prompts[name] = content
	}
}

// WithEligibilityCache keeps up to size closures for ttl. Cached closures
// survive graph updates until they expire or PurgeCache is called.
func WithEligibilityCache(size int, ttl time.Duration) Option {
	return func(cfg *Config) {
		if size >= 0 {
			cfg.EligibilityCache = size
		}
		if ttl > 0 {
			cfg.EligibilityCacheTTL = ttl
		}
	}
}

// WithTemplates plugs in a custom template registry.
func WithTemplates(r *TemplateRegistry) Option {
	return func(cfg *Config) {
		if r != nil {
			cfg.templates = r
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		Name:                "course-advisor",
		Programs:            append([]string(nil), DefaultPrograms...),
		FollowupHint:        DefaultFollowupHint,
		MalformedVerdict:    VerdictPass,
		PlannerTemperature:  0,
		QueryTemperature:    0,
		AnswerTemperature:   0.2,
		VerifierTemperature: 0,
		MaxEvidenceTokens:   3000,
		EligibilityCacheTTL: DefaultClosureTTL,
		counter:             tokenizer.WordCounter{},
	}
}

func applyOptions(cfg *Config, opts []Option) *Config {
	if cfg == nil {
		cfg = defaultConfig()
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.templates == nil {
		cfg.templates = NewTemplateRegistry()
	}
	return cfg
}
