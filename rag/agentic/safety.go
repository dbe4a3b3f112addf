package agentic

import (
	"strings"
	"unicode"

	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
)

var (
	// AllowedLeadingClauses are the read-only clauses a query may start with.
	AllowedLeadingClauses = []string{"MATCH", "OPTIONAL MATCH", "WITH", "RETURN", "UNWIND"}

	// BlockedKeywords may not appear anywhere in a query.
	BlockedKeywords = []string{"CREATE", "MERGE", "SET", "DELETE", "REMOVE", "DROP", "CALL", "LOAD CSV", "FOREACH"}
)

// SafetyGate rejects queries that are not plainly read-only. In the default
// mode blocked keywords are matched as substrings of the upper-cased text, so
// a property such as "offset" is rejected too. Strict mode tokenizes the query
// and ignores string literals, quoted identifiers, property keys and labels.
type SafetyGate struct {
	strict bool
}

// NewSafetyGate returns a gate; strict selects token matching.
func NewSafetyGate(strict bool) *SafetyGate {
	return &SafetyGate{strict: strict}
}

// Check returns a *errors.QuerySafetyViolation when spec must not run.
func (g *SafetyGate) Check(spec *QuerySpec) error {
	if spec == nil || strings.TrimSpace(spec.Query) == "" {
		return &errorskg.QuerySafetyViolation{Reason: "empty query"}
	}
	if g != nil && g.strict {
		return checkStrict(spec.Query)
	}
	return checkSubstring(spec.Query)
}

func checkSubstring(query string) error {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, kw := range BlockedKeywords {
		if strings.Contains(q, kw) {
			return &errorskg.QuerySafetyViolation{Query: query, Keyword: kw, Reason: "blocked keyword"}
		}
	}
	for _, prefix := range AllowedLeadingClauses {
		if strings.HasPrefix(q, prefix) {
			return nil
		}
	}
	return &errorskg.QuerySafetyViolation{Query: query, Reason: "query must start with a read-only clause"}
}

type cypherToken struct {
	text string
	// keyword is false for tokens that cannot be clauses: property keys,
	// labels, relationship types and parameters.
	keyword bool
}

func checkStrict(query string) error {
	toks, statements := tokenizeCypher(query)
	if statements > 1 {
		return &errorskg.QuerySafetyViolation{Query: query, Keyword: ";", Reason: "multiple statements"}
	}

	words := make([]string, 0, len(toks))
	for _, t := range toks {
		if t.keyword {
			words = append(words, strings.ToUpper(t.text))
		} else {
			words = append(words, "")
		}
	}
	for i, w := range words {
		for _, kw := range BlockedKeywords {
			parts := strings.Fields(kw)
			if w != parts[0] || i+len(parts) > len(words) {
				continue
			}
			match := true
			for j := 1; j < len(parts); j++ {
				if words[i+j] != parts[j] {
					match = false
					break
				}
			}
			if match {
				return &errorskg.QuerySafetyViolation{Query: query, Keyword: kw, Reason: "blocked keyword"}
			}
		}
	}

	if len(words) == 0 {
		return &errorskg.QuerySafetyViolation{Query: query, Reason: "query must start with a read-only clause"}
	}
	lead := words[0]
	if lead == "OPTIONAL" && len(words) > 1 {
		lead += " " + words[1]
	}
	for _, clause := range AllowedLeadingClauses {
		if lead == clause {
			return nil
		}
	}
	return &errorskg.QuerySafetyViolation{Query: query, Reason: "query must start with a read-only clause"}
}

// tokenizeCypher splits a query into bare words, skipping literals and
// comments, and counts the non-empty statements separated by semicolons.
func tokenizeCypher(query string) ([]cypherToken, int) {
	var toks []cypherToken
	runes := []rune(query)
	statements := 0
	pending := false
	var prev rune

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
			continue

		case r == '\'' || r == '"' || r == '`':
			quote := r
			i++
			for i < len(runes) && runes[i] != quote {
				if runes[i] == '\\' {
					i++
				}
				i++
			}
			i++
			pending = true
			prev = quote
			continue

		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			continue

		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i += 2
			continue

		case r == ';':
			if pending {
				statements++
				pending = false
			}
			i++
			prev = r
			continue

		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, cypherToken{
				text:    string(runes[start:i]),
				keyword: prev != '.' && prev != ':' && prev != '$',
			})
			pending = true
			prev = 'a'
			continue
		}

		pending = true
		prev = r
		i++
	}
	if pending {
		statements++
	}
	return toks, statements
}
