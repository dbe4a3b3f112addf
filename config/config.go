// Package config loads advisor settings from a .env file, an optional YAML
// file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full advisor configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Neo4j     Neo4jConfig     `yaml:"neo4j"`
	History   HistoryConfig   `yaml:"history"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LLMConfig selects the generative provider. Role models override Model
// for one pipeline stage each.
type LLMConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxTokens     int           `yaml:"max_tokens"`
	PlannerModel  string        `yaml:"planner_model"`
	QueryModel    string        `yaml:"query_model"`
	AnswerModel   string        `yaml:"answer_model"`
	VerifierModel string        `yaml:"verifier_model"`
}

// Neo4jConfig holds graph-store connection settings.
type Neo4jConfig struct {
	URI         string        `yaml:"uri"`
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	Database    string        `yaml:"database"`
	TxTimeout   time.Duration `yaml:"tx_timeout"`
	MaxPoolSize int           `yaml:"max_pool_size"`
}

// HistoryConfig selects the turn audit backend. Network backends read
// their connection settings from REDIS_*, POSTGRES_* and MONGODB_*.
type HistoryConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
	MaxTurns   int    `yaml:"max_turns"`
}

// AdvisorConfig tunes the pipeline and its serving surfaces.
type AdvisorConfig struct {
	Programs          []string      `yaml:"programs"`
	ProgramsFromStore bool          `yaml:"programs_from_store"`
	StrictSafety      bool          `yaml:"strict_safety"`
	MaxEvidenceTokens int           `yaml:"max_evidence_tokens"`
	Tokenizer         string        `yaml:"tokenizer"`
	EligibilityCache  int           `yaml:"eligibility_cache"` // closures cached; 0 reads the graph on every check
	EligibilityTTL    time.Duration `yaml:"eligibility_cache_ttl"`
	RateLimit         float64       `yaml:"rate_limit"`
	RateBurst         int           `yaml:"rate_burst"`
	MaxQuestionLength int           `yaml:"max_question_length"`
	MetricsAddr       string        `yaml:"metrics_addr"`
	Fixture           string        `yaml:"fixture"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Default returns the local development configuration: Ollama and Neo4j on
// localhost, no history.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "ollama",
			Model:     "llama3.1",
			BaseURL:   "http://localhost:11434",
			Timeout:   120 * time.Second,
			MaxTokens: 1024,
		},
		Neo4j: Neo4jConfig{
			URI:         "neo4j://localhost:7687",
			User:        "neo4j",
			TxTimeout:   30 * time.Second,
			MaxPoolSize: 10,
		},
		History: HistoryConfig{
			Backend:  "none",
			MaxTurns: 1000,
		},
		Advisor: AdvisorConfig{
			Programs:          []string{"MSDS", "BSCS", "BASTAT"},
			MaxEvidenceTokens: 3000,
			EligibilityTTL:    5 * time.Minute,
			RateBurst:         1,
			MaxQuestionLength: 2000,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "course-advisor",
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env is
// ignored but a missing YAML file named explicitly is an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables. Malformed numbers are reported
// rather than silently ignored.
func (c *Config) applyEnv() error {
	v := NewValidator()

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	if c.LLM.Provider == "ollama" {
		setString(&c.LLM.BaseURL, "OLLAMA_BASE_URL")
		setString(&c.LLM.Model, "OLLAMA_MODEL")
	}
	setDuration(v, &c.LLM.Timeout, "LLM_TIMEOUT")
	setInt(v, &c.LLM.MaxTokens, "LLM_MAX_TOKENS")

	setString(&c.Neo4j.URI, "NEO4J_URI")
	setString(&c.Neo4j.User, "NEO4J_USER")
	setString(&c.Neo4j.Password, "NEO4J_PASSWORD")
	setString(&c.Neo4j.Database, "NEO4J_DATABASE")
	setDuration(v, &c.Neo4j.TxTimeout, "NEO4J_TX_TIMEOUT")

	setString(&c.History.Backend, "HISTORY_BACKEND")
	setString(&c.History.SQLitePath, "SQLITE_PATH")

	if raw := strings.TrimSpace(os.Getenv("ADVISOR_PROGRAMS")); raw != "" {
		c.Advisor.Programs = SplitList(raw)
	}
	setBool(v, &c.Advisor.StrictSafety, "ADVISOR_STRICT_SAFETY")
	setInt(v, &c.Advisor.EligibilityCache, "ADVISOR_ELIGIBILITY_CACHE")
	setDuration(v, &c.Advisor.EligibilityTTL, "ADVISOR_ELIGIBILITY_CACHE_TTL")
	setFloat(v, &c.Advisor.RateLimit, "ADVISOR_RATE_LIMIT")
	setString(&c.Advisor.MetricsAddr, "ADVISOR_METRICS_ADDR")
	setString(&c.Advisor.Tokenizer, "ADVISOR_TOKENIZER")

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.Telemetry.OTLPEndpoint = endpoint
		c.Telemetry.Enabled = true
	}
	setString(&c.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
	setBool(v, &c.Telemetry.Enabled, "ADVISOR_TRACING")

	return v.Error()
}

// Validate reports every invalid setting. The Neo4j section is skipped
// when the in-memory demo graph is used.
func (c *Config) Validate(demo bool) error {
	v := NewValidator()
	v.Merge("llm", NewLLMValidator(c.LLM.Provider, c.LLM.Model, c.LLM.BaseURL, c.LLM.APIKey, c.LLM.Timeout))
	if !demo {
		v.Merge("neo4j", NewNeo4jValidator(c.Neo4j.URI, c.Neo4j.User, c.Neo4j.TxTimeout, c.Neo4j.MaxPoolSize))
	}
	v.ValidateOneOf("history.backend", strings.ToLower(c.History.Backend),
		"none", "memory", "redis", "postgres", "mongo", "sqlite")
	if len(c.Advisor.Programs) == 0 {
		v.add("advisor.programs", "at least one program id is required")
	}
	v.RequirePositive("advisor.max_evidence_tokens", c.Advisor.MaxEvidenceTokens)
	v.RequirePositive("advisor.max_question_length", c.Advisor.MaxQuestionLength)
	if c.Advisor.EligibilityCache < 0 {
		v.add("advisor.eligibility_cache", "value must not be negative, got %d", c.Advisor.EligibilityCache)
	}
	if c.Advisor.RateLimit < 0 {
		v.add("advisor.rate_limit", "value must not be negative, got %.2f", c.Advisor.RateLimit)
	} else if c.Advisor.RateLimit > 0 {
		v.RequirePositive("advisor.rate_burst", c.Advisor.RateBurst)
	}
	return v.Error()
}

// SplitList splits a comma separated list, trimming blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func setInt(v *Validator, dst *int, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.add(key, "invalid integer %q", raw)
		return
	}
	*dst = n
}

func setFloat(v *Validator, dst *float64, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.add(key, "invalid number %q", raw)
		return
	}
	*dst = f
}

func setBool(v *Validator, dst *bool, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		v.add(key, "invalid boolean %q", raw)
		return
	}
	*dst = b
}

// setDuration accepts Go durations ("90s") or bare seconds ("120").
func setDuration(v *Validator, dst *time.Duration, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		v.add(key, "invalid duration %q", raw)
		return
	}
	*dst = d
}
