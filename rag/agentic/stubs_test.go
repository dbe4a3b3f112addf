package agentic

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/message"
)

// stubLLM replies with responses in order, repeating the last one.
type stubLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	requests  []*agent.GenerateRequest
}

func newStubLLM(responses ...string) *stubLLM {
	return &stubLLM{responses: responses}
}

func (s *stubLLM) Generate(ctx context.Context, req *agent.GenerateRequest) (*agent.GenerateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	text := ""
	if len(s.responses) > 0 {
		idx := s.calls - 1
		if idx >= len(s.responses) {
			idx = len(s.responses) - 1
		}
		text = s.responses[idx]
	}
	return &agent.GenerateResponse{Message: message.NewMessage(message.RoleAssistant, text), Model: "stub"}, nil
}

func (s *stubLLM) lastSystem() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return ""
	}
	return s.requests[len(s.requests)-1].Messages[0].Content
}

func (s *stubLLM) userPayload(i int) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out map[string]any
	_ = json.Unmarshal([]byte(s.requests[i].Messages[1].Content), &out)
	return out
}

// stubStore answers by query text and records what it ran.
type stubStore struct {
	mu      sync.Mutex
	rows    map[string][]graphstore.Row
	err     error
	queries []string
	params  []map[string]any
}

func newStubStore() *stubStore {
	return &stubStore{rows: make(map[string][]graphstore.Row)}
}

func (s *stubStore) RunRead(ctx context.Context, query string, params map[string]any) ([]graphstore.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	s.params = append(s.params, params)
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[query], nil
}

func (s *stubStore) RunWrite(ctx context.Context, query string, params map[string]any) error {
	return nil
}

func (s *stubStore) Close(ctx context.Context) error { return nil }

func (s *stubStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func planJSON(intent Intent, codes ...string) string {
	return mustJSON(map[string]any{
		"intent":            intent,
		"course_codes":      codes,
		"program_ids":       []string{},
		"need_multihop":     false,
		"notes":             "",
		"target_course":     "",
		"completed_courses": []string{},
	})
}

func verdictJSON(v Verdict, hint string) string {
	return mustJSON(map[string]any{"verdict": v, "reason": "stub", "followup_cypher_hint": hint})
}
