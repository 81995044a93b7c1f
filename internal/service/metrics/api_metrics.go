package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// APIMetrics tracks the quote and signal endpoints.
type APIMetrics struct {
	Latency    *prometheus.HistogramVec
	Errors     *prometheus.CounterVec
	CacheHits  *prometheus.CounterVec
	RateLimits *prometheus.CounterVec
	Streams    prometheus.Gauge
}

// NewAPIMetrics registers the endpoint vectors on reg.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	f := promauto.With(reg)
	return &APIMetrics{
		Latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "biaslens",
				Subsystem: "api",
				Name:      "latency_seconds",
				Help:      "Latency of API endpoints",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		Errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "biaslens",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Errors by API endpoint",
			},
			[]string{"endpoint"},
		),
		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "biaslens",
				Subsystem: "api",
				Name:      "response_cache_hits_total",
				Help:      "Responses served from the transport cache",
			},
			[]string{"endpoint"},
		),
		RateLimits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "biaslens",
				Subsystem: "api",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-user limiter",
			},
			[]string{"endpoint"},
		),
		Streams: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "biaslens",
				Subsystem: "api",
				Name:      "open_streams",
				Help:      "Open quote stream websockets",
			},
		),
	}
}

// Observe records the latency since start for endpoint.
func (m *APIMetrics) Observe(endpoint string, start time.Time) {
	m.Latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
