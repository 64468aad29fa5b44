// Package observability holds the Prometheus metrics of analyze runs
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/agora/internal/model"
)

var (
	AnalyzeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_analyze_runs_total",
		Help: "Analyze runs by outcome",
	}, []string{"outcome"})

	AnalyzeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agora_analyze_duration_seconds",
		Help:    "Wall time of analyze runs including provider calls",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	JSONCoercions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_json_coercion_total",
		Help: "Repair step needed to read provider output",
	}, []string{"coercion"})

	ProviderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_provider_attempts_total",
		Help: "Provider attempts by provider and outcome",
	}, []string{"provider", "outcome"})

	ProviderTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_provider_tokens_total",
		Help: "Tokens exchanged with providers",
	}, []string{"provider", "direction"})

	ClaimsExtracted = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agora_claims_per_run",
		Help:    "Claims kept after sanitization",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
	})
)

// Outcomes of an analyze run
const (
	OutcomeOK             = "ok"
	OutcomeConfiguration  = "configuration_error"
	OutcomeProviderFailed = "provider_failure"
	OutcomeSchemaMismatch = "schema_mismatch"
	OutcomeInvalidInput   = "invalid_input"
	OutcomeCancelled      = "cancelled"
)

// Recorder feeds run and provider events into the package metrics
type Recorder struct{}

// ObserveAttempt counts one provider attempt
func (Recorder) ObserveAttempt(a model.ProviderAttempt) {
	outcome := "ok"
	if !a.OK {
		outcome = a.ErrorKind
	}
	if a.Cached {
		outcome = "cached"
	}
	ProviderAttempts.WithLabelValues(a.Provider, outcome).Inc()
	if a.TokensIn > 0 {
		ProviderTokens.WithLabelValues(a.Provider, "in").Add(float64(a.TokensIn))
	}
	if a.TokensOut > 0 {
		ProviderTokens.WithLabelValues(a.Provider, "out").Add(float64(a.TokensOut))
	}
}

// ObserveRun counts a finished analyze run. The coercion is only recorded
// for successful runs.
func (Recorder) ObserveRun(outcome string, coercion model.JSONCoercion, claims int, d time.Duration) {
	AnalyzeRuns.WithLabelValues(outcome).Inc()
	AnalyzeDuration.Observe(d.Seconds())
	if outcome == OutcomeOK {
		JSONCoercions.WithLabelValues(string(coercion)).Inc()
		ClaimsExtracted.Observe(float64(claims))
	}
}
