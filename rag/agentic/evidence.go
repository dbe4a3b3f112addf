package agentic

import (
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/tokenizer"
)

// capRows keeps the longest prefix of rows whose JSON fits in maxTokens.
// At least one row is kept when rows is non-empty. The second result is the
// number of rows dropped.
func capRows(rows []graphstore.Row, counter tokenizer.Counter, maxTokens int) ([]graphstore.Row, int) {
	if counter == nil || maxTokens <= 0 || len(rows) == 0 {
		return rows, 0
	}
	used := 0
	for i, row := range rows {
		used += counter.CountTokens(mustJSON(row))
		if used > maxTokens && i > 0 {
			return rows[:i], len(rows) - i
		}
	}
	return rows, 0
}
