package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	JourneysProcessed *prometheus.CounterVec
	Readings          *prometheus.CounterVec
	ProcessSeconds    prometheus.Histogram
	ActiveWorkers     prometheus.Gauge
	GeocoderSeconds   *prometheus.HistogramVec
	GeocoderErrors    prometheus.Counter
	SinkErrors        *prometheus.CounterVec
	Published         *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		JourneysProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tracksheet_journeys_processed_total",
			Help: "Total number of processed journeys.",
		}, []string{"status"}),
		Readings: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tracksheet_readings_total",
			Help: "Total number of readings, by deduplication decision.",
		}, []string{"decision"}),
		ProcessSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "tracksheet_journey_process_duration_seconds",
			Help:    "Time spent parsing and processing a single journey.",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tracksheet_active_workers",
			Help: "Current number of workers processing journeys.",
		}),
		GeocoderSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracksheet_geocoder_request_duration_seconds",
			Help:    "Duration of reverse geocoding requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		GeocoderErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tracksheet_geocoder_errors_total",
			Help: "Total number of failed reverse geocoding requests.",
		}),
		SinkErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tracksheet_sink_errors_total",
			Help: "Total number of failed writes, by sink.",
		}, []string{"sink"}),
		Published: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tracksheet_nats_messages_total",
			Help: "Total number of readings published to NATS, by outcome.",
		}, []string{"status"}),
	}
}

// PublishedInc counts a reading published to NATS.
func (m *Metrics) PublishedInc() {
	m.Published.WithLabelValues("success").Inc()
}

// PublishErrInc counts a reading NATS refused.
func (m *Metrics) PublishErrInc() {
	m.Published.WithLabelValues("failure").Inc()
}
