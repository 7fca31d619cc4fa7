package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the client. It is passed to
// every component that records metrics. A nil *Metrics records nothing.
type Metrics struct {
	// Remote service
	remoteCallsTotal   *prometheus.CounterVec
	remoteCallDuration *prometheus.HistogramVec

	// Quotes and solver
	quotesTotal        *prometheus.CounterVec
	quoteDuration      prometheus.Histogram
	solverIterations   prometheus.Histogram
	solverResultsTotal *prometheus.CounterVec
	staleResultsTotal  *prometheus.CounterVec

	// Balance polling
	pollAttempts      prometheus.Histogram
	pollOutcomesTotal *prometheus.CounterVec

	// Activity feed
	eventsSkippedTotal  prometheus.Counter
	eventsFilteredTotal prometheus.Counter

	// Token metadata
	metadataFetchesTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		remoteCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultswap_remote_calls_total",
				Help: "Total number of pool service calls by method and status",
			},
			[]string{"method", "status"},
		),
		remoteCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultswap_remote_call_duration_seconds",
				Help:    "Duration of pool service calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		quotesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultswap_quotes_total",
				Help: "Total number of forward quotes by status",
			},
			[]string{"status"},
		),
		quoteDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vaultswap_quote_duration_seconds",
				Help:    "Duration of forward quotes in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		),
		solverIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vaultswap_solver_iterations",
				Help:    "Refinement rounds used per exact-output solve",
				Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
			},
		),
		solverResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultswap_solver_results_total",
				Help: "Exact-output solves by outcome (converged, shortfall, bounded)",
			},
			[]string{"outcome"},
		),
		staleResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultswap_stale_results_total",
				Help: "Results dropped because a newer request superseded them",
			},
			[]string{"channel"},
		),
		pollAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vaultswap_balance_poll_attempts",
				Help:    "Balance reads performed per refresh",
				Buckets: []float64{1, 2, 3, 5, 8, 12, 20},
			},
		),
		pollOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultswap_balance_poll_outcomes_total",
				Help: "Balance refreshes by outcome (changed, unchanged)",
			},
			[]string{"outcome"},
		),
		eventsSkippedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vaultswap_events_skipped_total",
				Help: "Activity records dropped because they could not be parsed",
			},
		),
		eventsFilteredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vaultswap_events_filtered_total",
				Help: "Activity records dropped by the cutoff",
			},
		),
		metadataFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultswap_token_metadata_fetches_total",
				Help: "Token metadata lookups by source (cache, remote, error)",
			},
			[]string{"source"},
		),
	}
}

// Remote service metric helpers

// RecordRemoteCall records a pool service call with duration.
func (m *Metrics) RecordRemoteCall(method string, err error, duration float64) {
	if m == nil {
		return
	}
	m.remoteCallsTotal.WithLabelValues(method, statusOf(err)).Inc()
	m.remoteCallDuration.WithLabelValues(method).Observe(duration)
}

// Quote metric helpers

// RecordQuote records a forward quote with duration.
func (m *Metrics) RecordQuote(err error, duration float64) {
	if m == nil {
		return
	}
	m.quotesTotal.WithLabelValues(statusOf(err)).Inc()
	m.quoteDuration.Observe(duration)
}

// RecordSolve records the outcome of an exact-output solve.
func (m *Metrics) RecordSolve(iterations int, converged, bounded bool) {
	if m == nil {
		return
	}
	m.solverIterations.Observe(float64(iterations))
	outcome := "converged"
	switch {
	case bounded:
		outcome = "bounded"
	case !converged:
		outcome = "shortfall"
	}
	m.solverResultsTotal.WithLabelValues(outcome).Inc()
}

// RecordStale records a result dropped as superseded.
func (m *Metrics) RecordStale(channel string) {
	if m == nil {
		return
	}
	m.staleResultsTotal.WithLabelValues(channel).Inc()
}

// Polling metric helpers

// RecordPoll records the attempts and outcome of one balance refresh.
func (m *Metrics) RecordPoll(attempts int, changed bool) {
	if m == nil {
		return
	}
	m.pollAttempts.Observe(float64(attempts))
	outcome := "unchanged"
	if changed {
		outcome = "changed"
	}
	m.pollOutcomesTotal.WithLabelValues(outcome).Inc()
}

// Activity metric helpers

// RecordEventsSkipped records records that failed to normalize.
func (m *Metrics) RecordEventsSkipped(count int) {
	if m == nil || count == 0 {
		return
	}
	m.eventsSkippedTotal.Add(float64(count))
}

// RecordEventsFiltered records events removed by the cutoff.
func (m *Metrics) RecordEventsFiltered(count int) {
	if m == nil || count == 0 {
		return
	}
	m.eventsFilteredTotal.Add(float64(count))
}

// RecordMetadataFetch records where token metadata came from.
func (m *Metrics) RecordMetadataFetch(source string) {
	if m == nil {
		return
	}
	m.metadataFetchesTotal.WithLabelValues(source).Inc()
}

// Helper functions

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
