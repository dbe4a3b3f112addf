package history

import (
	"errors"
	"testing"
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/agentic"
)

func TestFromResponse(t *testing.T) {
	resp := &agentic.Response{
		TurnID:   "turn-1",
		Question: "What are the direct prerequisites for DMS440?",
		Plan:     &agentic.Plan{Intent: agentic.IntentDirectPrereqs},
		Query:    agentic.NewQuerySpec(agentic.DirectPrereqsQuery, map[string]any{"code": "DMS440"}, agentic.SourceTemplate),
		Rows:     []graphstore.Row{{"code": "DMS401"}, {"code": "MTH201"}},
		Answer:   "Direct prerequisites (1-hop):\n- DMS401\n- MTH201",
		Verdict:  &agentic.VerifierVerdict{Verdict: agentic.VerdictPass, Reason: "supported"},
		Attempts: []agentic.Attempt{{Number: 1}},
		Duration: 1500 * time.Millisecond,
	}
	turn := FromResponse(resp.Question, resp, nil)
	if turn.ID != "turn-1" || turn.Intent != "direct_prereqs" || turn.QuerySource != "template" {
		t.Fatalf("unexpected turn %+v", turn)
	}
	if turn.RowCount != 2 || turn.Attempts != 1 || turn.DurationMS != 1500 || turn.Verdict != "pass" {
		t.Fatalf("unexpected counters %+v", turn)
	}
}

func TestFromResponseError(t *testing.T) {
	turn := FromResponse("q", nil, errors.New("neo4j unavailable"))
	if turn.Error != "neo4j unavailable" || turn.Question != "q" {
		t.Fatalf("unexpected turn %+v", turn)
	}
	Prepare(turn)
	if turn.ID == "" || turn.CreatedAt.IsZero() {
		t.Fatalf("Prepare left turn incomplete: %+v", turn)
	}
	id := turn.ID
	Prepare(turn)
	if turn.ID != id {
		t.Fatal("Prepare must not replace an existing ID")
	}
}
