package agentic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/agent"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/message"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/prompt"
)

func testVerifier(t *testing.T, llm agent.LLMClient, opts ...Option) *verifier {
	t.Helper()
	cfg := applyOptions(nil, opts)
	prompts, err := prompt.NewAdvisorManager(nil)
	if err != nil {
		t.Fatalf("NewAdvisorManager error: %v", err)
	}
	return newVerifier(llm, prompts, cfg, func() []string { return DefaultPrograms })
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		fallback  Verdict
		verdict   Verdict
		hint      string
		malformed bool
		reason    string
	}{
		{"pass", `{"verdict":"pass","reason":"ok","followup_cypher_hint":""}`, VerdictPass, VerdictPass, "", false, "ok"},
		{"needs more", `{"verdict":"needs_more","reason":"titles","followup_cypher_hint":"Return c.title."}`, VerdictPass, VerdictNeedsMore, "Return c.title.", false, "titles"},
		{"short hint key", `{"verdict":"needs_more","reason":"r","followup_hint":"Return more."}`, VerdictPass, VerdictNeedsMore, "Return more.", false, "r"},
		{"fail upper case", "```json\n{\"verdict\":\"FAIL\",\"reason\":\"hallucinated\"}\n```", VerdictPass, VerdictFail, "", false, "hallucinated"},
		{"garbage", `not json at all`, VerdictPass, VerdictPass, "", true, "Verifier output was malformed; defaulted to pass."},
		{"missing verdict", `{"reason":"x"}`, VerdictPass, VerdictPass, "", true, "Verifier output was malformed; defaulted to pass."},
		{"unknown verdict", `{"verdict":"maybe","reason":"x"}`, VerdictPass, VerdictPass, "", true, `Verifier returned unknown verdict "maybe"; defaulted to pass.`},
		{"needs_more fallback", `oops`, VerdictNeedsMore, VerdictNeedsMore, "", true, "Verifier output was malformed; defaulted to needs_more."},
		{"fail fallback rejected", `oops`, VerdictFail, VerdictPass, "", true, "Verifier output was malformed; defaulted to pass."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseVerdict(tt.raw, tt.fallback)
			if got.Verdict != tt.verdict || got.FollowupHint != tt.hint || got.Malformed != tt.malformed || got.Reason != tt.reason {
				t.Fatalf("parseVerdict = %+v", got)
			}
		})
	}
}

func TestVerifierRequest(t *testing.T) {
	llm := newStubLLM(verdictJSON(VerdictPass, ""))
	v := testVerifier(t, llm)
	got, err := v.Verify(context.Background(), "What is DMS440?", nil, CourseNotFound)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got.Verdict != VerdictPass {
		t.Fatalf("verdict = %s", got.Verdict)
	}
	req := llm.requests[0]
	if !req.JSONMode || req.Temperature != 0 {
		t.Fatalf("verifier must request JSON at temperature 0")
	}
	if !strings.Contains(req.Messages[1].Content, `"rows":[]`) {
		t.Fatalf("empty rows must be sent as a list: %s", req.Messages[1].Content)
	}
}

func TestVerifierTransportError(t *testing.T) {
	llm := newStubLLM()
	llm.err = errors.New("connection reset")
	if _, err := testVerifier(t, llm).Verify(context.Background(), "q", nil, "a"); !errors.Is(err, llm.err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

// ruleJudge applies the verifier decision rules the way a compliant model
// would, so the decoding path can be checked against them.
type ruleJudge struct{}

func (ruleJudge) Generate(ctx context.Context, req *agent.GenerateRequest) (*agent.GenerateResponse, error) {
	var in struct {
		Rows   []graphstore.Row `json:"rows"`
		Answer string           `json:"answer"`
	}
	if err := json.Unmarshal([]byte(req.Messages[1].Content), &in); err != nil {
		return nil, err
	}
	notFound := strings.HasPrefix(in.Answer, "I couldn't find")
	var out string
	switch {
	case len(in.Rows) == 0 && notFound:
		out = verdictJSON(VerdictPass, "")
	case len(in.Rows) == 0:
		out = verdictJSON(VerdictFail, "")
	default:
		supported := true
		for _, row := range in.Rows {
			if code := row.String("code"); code != "" && !strings.Contains(in.Answer, code) {
				supported = false
			}
		}
		if supported {
			out = verdictJSON(VerdictPass, "")
		} else {
			out = verdictJSON(VerdictNeedsMore, "Return every prerequisite code.")
		}
	}
	return &agent.GenerateResponse{Message: message.NewMessage(message.RoleAssistant, out)}, nil
}

func TestVerifierRuleCoverage(t *testing.T) {
	v := testVerifier(t, ruleJudge{})
	rows := []graphstore.Row{{"code": "DMS401", "title": "Applied ML"}}
	tests := []struct {
		name   string
		rows   []graphstore.Row
		answer string
		want   Verdict
	}{
		{"empty rows, not found", nil, PrereqsNotFound, VerdictPass},
		{"empty rows, generic not found", []graphstore.Row{}, GenericNotFound, VerdictPass},
		{"empty rows, asserted facts", nil, "DMS440 requires DMS401.", VerdictFail},
		{"supported", rows, "Direct prerequisites (1-hop):\n- DMS401: Applied ML", VerdictPass},
		{"omits evidence", append(rows, graphstore.Row{"code": "MTH201"}), "Direct prerequisites (1-hop):\n- DMS401: Applied ML", VerdictNeedsMore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(context.Background(), "What are the direct prerequisites for DMS440?", tt.rows, tt.answer)
			if err != nil {
				t.Fatalf("Verify error: %v", err)
			}
			if got.Verdict != tt.want {
				t.Fatalf("verdict = %s, want %s", got.Verdict, tt.want)
			}
		})
	}
}
