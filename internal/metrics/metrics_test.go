package metrics_test

import (
	"testing"

	"github.com/UnknownOlympus/tracksheet/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	m.PublishedInc()
	m.PublishedInc()
	m.PublishErrInc()
	m.JourneysProcessed.WithLabelValues("success").Inc()

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.Published.WithLabelValues("success")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Published.WithLabelValues("failure")), 0)

	count, err := testutil.GatherAndCount(reg, "tracksheet_journeys_processed_total", "tracksheet_nats_messages_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewMetrics(reg)

	assert.Panics(t, func() { metrics.NewMetrics(reg) })
}
