package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordRemoteCall("quote_live", nil, 0.1)
		m.RecordQuote(errors.New("boom"), 0.1)
		m.RecordSolve(2, false, false)
		m.RecordStale("quote")
		m.RecordPoll(3, true)
		m.RecordEventsSkipped(1)
		m.RecordEventsFiltered(1)
		m.RecordMetadataFetch("cache")
	})
}

func TestRecorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordQuote(nil, 0.01)
	m.RecordQuote(errors.New("boom"), 0.01)
	m.RecordQuote(nil, 0.01)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.quotesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotesTotal.WithLabelValues("error")))

	m.RecordSolve(2, false, false)
	m.RecordSolve(1, true, true)
	m.RecordSolve(1, true, false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solverResultsTotal.WithLabelValues("shortfall")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solverResultsTotal.WithLabelValues("bounded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solverResultsTotal.WithLabelValues("converged")))

	m.RecordStale("balance")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleResultsTotal.WithLabelValues("balance")))

	m.RecordEventsSkipped(3)
	m.RecordEventsFiltered(0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.eventsSkippedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.eventsFilteredTotal))

	m.RecordPoll(3, true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pollOutcomesTotal.WithLabelValues("changed")))
}
