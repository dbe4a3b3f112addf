// Package metrics exposes Prometheus collectors for the question pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes besides the final verdict (pass, needs_more, fail).
const (
	OutcomeEligibility = "eligibility"
	OutcomeError       = "error"
)

var (
	// turnsTotal counts finished turns.
	// Labels: outcome (pass, needs_more, fail, eligibility, error)
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "pipeline",
		Name:      "turns_total",
		Help:      "Total questions processed by outcome",
	}, []string{"outcome"})

	// attemptsPerTurn records how many build/verify cycles a turn used.
	attemptsPerTurn = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "advisor",
		Subsystem: "pipeline",
		Name:      "attempts_per_turn",
		Help:      "Build/execute/answer/verify cycles per turn",
		Buckets:   []float64{1, 2},
	})

	// verdictsTotal counts verifier verdicts.
	// Labels: verdict (pass, needs_more, fail), malformed (true, false)
	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "verifier",
		Name:      "verdicts_total",
		Help:      "Verifier verdicts",
	}, []string{"verdict", "malformed"})

	// queriesTotal counts built queries.
	// Labels: intent, source (template, generated, default)
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "builder",
		Name:      "queries_total",
		Help:      "Queries built by intent and source",
	}, []string{"intent", "source"})

	// safetyViolationsTotal counts queries rejected before execution.
	// Labels: keyword
	safetyViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "safety",
		Name:      "violations_total",
		Help:      "Queries rejected by the safety gate",
	}, []string{"keyword"})

	// stageSeconds measures stage latency.
	// Labels: stage (plan, build, execute, answer, verify, eligibility)
	stageSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "advisor",
		Subsystem: "pipeline",
		Name:      "stage_seconds",
		Help:      "Latency of pipeline stages",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	// eligibilityTotal counts eligibility results.
	// Labels: eligible (true, false)
	eligibilityTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "eligibility",
		Name:      "checks_total",
		Help:      "Eligibility checks by result",
	}, []string{"eligible"})
)

// RecordTurn counts a finished turn under outcome, which is the final verdict,
// OutcomeEligibility or OutcomeError, and observes attempts when any ran.
func RecordTurn(outcome string, attempts int) {
	turnsTotal.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		attemptsPerTurn.Observe(float64(attempts))
	}
}

// RecordVerdict counts one verifier verdict; malformed marks substituted ones.
func RecordVerdict(verdict string, malformed bool) {
	verdictsTotal.WithLabelValues(verdict, boolLabel(malformed)).Inc()
}

// RecordQuery counts a built query by intent and source.
func RecordQuery(intent, source string) {
	queriesTotal.WithLabelValues(intent, source).Inc()
}

// RecordSafetyViolation counts a rejected query. An empty keyword means the
// leading clause was not allowed.
func RecordSafetyViolation(keyword string) {
	if keyword == "" {
		keyword = "leading_clause"
	}
	safetyViolationsTotal.WithLabelValues(keyword).Inc()
}

// ObserveStage records the latency of one pipeline stage.
func ObserveStage(stage string, seconds float64) {
	stageSeconds.WithLabelValues(stage).Observe(seconds)
}

// RecordEligibility counts an eligibility result.
func RecordEligibility(eligible bool) {
	eligibilityTotal.WithLabelValues(boolLabel(eligible)).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
