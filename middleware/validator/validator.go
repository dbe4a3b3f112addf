package validator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/middleware"
)

// ValidatorFunc validates a question.
type ValidatorFunc func(string) error

// InputValidator trims the question and rejects it when any rule fails.
type InputValidator struct {
	validators []ValidatorFunc
}

// NewInputValidator creates an input validation middleware.
func NewInputValidator(validators ...ValidatorFunc) *InputValidator {
	return &InputValidator{validators: validators}
}

// Name returns the middleware name
func (m *InputValidator) Name() string {
	return "InputValidator"
}

// Execute normalises and validates the question.
func (m *InputValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	ctx.Question = strings.TrimSpace(ctx.Question)
	for _, validate := range m.validators {
		if validate == nil {
			continue
		}
		if err := validate(ctx.Question); err != nil {
			return err
		}
	}
	return next(ctx)
}

// NonEmpty rejects blank questions.
func NonEmpty(q string) error {
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("%w: question is empty", errorskg.ErrInvalidInput)
	}
	return nil
}

// MaxLength rejects questions longer than n runes.
func MaxLength(n int) ValidatorFunc {
	return func(q string) error {
		if n > 0 && utf8.RuneCountInString(q) > n {
			return fmt.Errorf("%w: question exceeds %d characters", errorskg.ErrInvalidInput, n)
		}
		return nil
	}
}

// PrintableText rejects invalid UTF-8 and control characters other than
// whitespace.
func PrintableText(q string) error {
	if !utf8.ValidString(q) {
		return fmt.Errorf("%w: question is not valid UTF-8", errorskg.ErrInvalidInput)
	}
	for _, r := range q {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return fmt.Errorf("%w: question contains control character %U", errorskg.ErrInvalidInput, r)
		}
	}
	return nil
}

// QuestionRules is the default rule set.
func QuestionRules(maxLength int) []ValidatorFunc {
	return []ValidatorFunc{NonEmpty, PrintableText, MaxLength(maxLength)}
}
