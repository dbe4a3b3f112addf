package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %q: %s", e.Field, e.Message)
}

// Validator collects every violation so Validate can report them at once.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, format string, args ...any) *Validator {
	v.errors = append(v.errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	return v
}

// RequireNonEmpty validates that a string field is not blank
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.add(field, "value cannot be empty")
	}
	return v
}

// RequirePositive validates that an integer field is greater than 0
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		return v.add(field, "value must be positive, got %d", value)
	}
	return v
}

// RequirePositiveDuration validates that a duration is greater than 0
func (v *Validator) RequirePositiveDuration(field string, value time.Duration) *Validator {
	if value <= 0 {
		return v.add(field, "duration must be positive, got %s", value)
	}
	return v
}

// ValidateRange validates that an integer field is within [min, max]
func (v *Validator) ValidateRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		return v.add(field, "value must be between %d and %d, got %d", min, max, value)
	}
	return v
}

// ValidateFloatRange validates that a float field is within [min, max]
func (v *Validator) ValidateFloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		return v.add(field, "value must be between %.2f and %.2f, got %.2f", min, max, value)
	}
	return v
}

// ValidatePort validates that a port number is valid (1-65535)
func (v *Validator) ValidatePort(field string, port int) *Validator {
	return v.ValidateRange(field, port, 1, 65535)
}

// ValidateDBNumber validates a Redis database number (0-15)
func (v *Validator) ValidateDBNumber(field string, db int) *Validator {
	return v.ValidateRange(field, db, 0, 15)
}

// ValidateOneOf validates that a string value is one of the allowed options
func (v *Validator) ValidateOneOf(field string, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if a == value {
			return v
		}
	}
	return v.add(field, "value must be one of %v, got %q", allowed, value)
}

// ValidateURL validates that value parses as an absolute URL with one of
// the given schemes. An empty value is accepted; pair with RequireNonEmpty.
func (v *Validator) ValidateURL(field, value string, schemes ...string) *Validator {
	if value == "" {
		return v
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return v.add(field, "value must be an absolute URL, got %q", value)
	}
	if len(schemes) == 0 {
		return v
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return v
		}
	}
	return v.add(field, "URL scheme must be one of %v, got %q", schemes, u.Scheme)
}

// Merge appends another validator's errors under a field prefix.
func (v *Validator) Merge(prefix string, other *Validator) *Validator {
	if other == nil {
		return v
	}
	for _, e := range other.errors {
		if prefix != "" {
			e.Field = prefix + "." + e.Field
		}
		v.errors = append(v.errors, e)
	}
	return v
}

// HasErrors returns true if there are any validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns a combined error message or nil if no errors
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	var b strings.Builder
	b.WriteString("configuration validation failed:\n")
	for _, e := range v.errors {
		fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
	}
	return errors.New(b.String())
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// LLM providers understood by the provider factory.
var Providers = []string{"ollama", "openai", "claude", "gemini"}

// NewLLMValidator checks generative provider settings. Ollama runs
// locally and needs no API key.
func NewLLMValidator(provider, model, baseURL, apiKey string, timeout time.Duration) *Validator {
	v := NewValidator()
	v.ValidateOneOf("provider", provider, Providers...)
	v.RequireNonEmpty("model", model)
	v.ValidateURL("baseURL", baseURL, "http", "https")
	v.RequirePositiveDuration("timeout", timeout)
	if provider == "ollama" {
		v.RequireNonEmpty("baseURL", baseURL)
	} else {
		v.RequireNonEmpty("apiKey", apiKey)
	}
	return v
}

// ValidateLLMConfig validates generative provider configuration
func ValidateLLMConfig(provider, model, baseURL, apiKey string, timeout time.Duration) error {
	return NewLLMValidator(provider, model, baseURL, apiKey, timeout).Error()
}

// NewNeo4jValidator checks graph-store connection settings.
func NewNeo4jValidator(uri, user string, txTimeout time.Duration, maxPool int) *Validator {
	v := NewValidator()
	v.RequireNonEmpty("uri", uri)
	v.ValidateURL("uri", uri, "neo4j", "neo4j+s", "neo4j+ssc", "bolt", "bolt+s", "bolt+ssc")
	v.RequireNonEmpty("user", user)
	v.RequirePositiveDuration("txTimeout", txTimeout)
	v.RequirePositive("maxPoolSize", maxPool)
	return v
}

// ValidateNeo4jConfig validates Neo4j configuration
func ValidateNeo4jConfig(uri, user string, txTimeout time.Duration, maxPool int) error {
	return NewNeo4jValidator(uri, user, txTimeout, maxPool).Error()
}

// ValidatePostgresConfig validates PostgreSQL configuration
func ValidatePostgresConfig(host string, port int, user string, password string, dbName string, sslMode string) error {
	v := NewValidator()
	v.RequireNonEmpty("host", host)
	v.ValidatePort("port", port)
	v.RequireNonEmpty("user", user)
	v.RequireNonEmpty("password", password)
	v.RequireNonEmpty("dbName", dbName)
	v.ValidateOneOf("sslMode", sslMode, "disable", "require", "verify-ca", "verify-full")
	return v.Error()
}

// ValidateRedisConfig validates Redis configuration
func ValidateRedisConfig(addr string, db int, prefix string) error {
	v := NewValidator()
	v.RequireNonEmpty("addr", addr)
	v.ValidateDBNumber("db", db)
	v.RequireNonEmpty("prefix", prefix)
	return v.Error()
}

// ValidateMongoDBConfig validates MongoDB configuration
func ValidateMongoDBConfig(uri string, database string, collection string) error {
	v := NewValidator()
	v.RequireNonEmpty("uri", uri)
	v.ValidateURL("uri", uri, "mongodb", "mongodb+srv")
	v.RequireNonEmpty("database", database)
	v.RequireNonEmpty("collection", collection)
	return v.Error()
}

// ValidateRateLimiterConfig validates the per-second question rate and
// burst. A zero rate disables limiting.
func ValidateRateLimiterConfig(perSecond float64, burst int) error {
	v := NewValidator()
	if perSecond < 0 {
		v.add("rate", "value must not be negative, got %.2f", perSecond)
	}
	if perSecond > 0 {
		v.RequirePositive("burst", burst)
	}
	return v.Error()
}
