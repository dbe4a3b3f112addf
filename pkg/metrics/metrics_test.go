package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersIncrementCollectors(t *testing.T) {
	before := testutil.ToFloat64(verdictsTotal.WithLabelValues("needs_more", "false"))
	RecordVerdict("needs_more", false)
	if got := testutil.ToFloat64(verdictsTotal.WithLabelValues("needs_more", "false")); got != before+1 {
		t.Fatalf("verdict counter = %v, want %v", got, before+1)
	}

	beforeSafety := testutil.ToFloat64(safetyViolationsTotal.WithLabelValues("leading_clause"))
	RecordSafetyViolation("")
	if got := testutil.ToFloat64(safetyViolationsTotal.WithLabelValues("leading_clause")); got != beforeSafety+1 {
		t.Fatalf("safety counter = %v, want %v", got, beforeSafety+1)
	}
}

func TestRecordTurnOutcomes(t *testing.T) {
	for _, outcome := range []string{"pass", "needs_more", "fail", OutcomeEligibility, OutcomeError} {
		t.Run(outcome, func(t *testing.T) {
			before := testutil.ToFloat64(turnsTotal.WithLabelValues(outcome))
			RecordTurn(outcome, 0)
			if got := testutil.ToFloat64(turnsTotal.WithLabelValues(outcome)); got != before+1 {
				t.Fatalf("turns{outcome=%q} = %v, want %v", outcome, got, before+1)
			}
		})
	}
}

func TestHandlerExposesAdvisorMetrics(t *testing.T) {
	RecordTurn("pass", 2)
	RecordQuery("direct_prereqs", "template")
	RecordEligibility(true)
	ObserveStage("plan", 0.02)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"advisor_pipeline_turns_total",
		"advisor_builder_queries_total",
		"advisor_eligibility_checks_total",
		"advisor_pipeline_stage_seconds",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in exposition", name)
		}
	}
}
