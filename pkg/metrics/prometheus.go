package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	providerResults *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a Prometheus recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biaslens_resolver_cache_hits_total",
				Help: "Resolutions served from cache",
			},
			[]string{"kind"},
		),
		cacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biaslens_resolver_cache_misses_total",
				Help: "Resolutions that had to consult providers",
			},
			[]string{"kind"},
		),
		providerResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biaslens_provider_requests_total",
				Help: "Provider attempts by outcome",
			},
			[]string{"kind", "provider", "outcome"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biaslens_resolver_demo_fallbacks_total",
				Help: "Resolutions that ended in synthetic demo data",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "biaslens_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordCacheHit(kind string) {
	r.cacheHits.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordCacheMiss(kind string) {
	r.cacheMisses.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordProviderResult(kind, provider string, ok bool) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	r.providerResults.WithLabelValues(kind, provider, outcome).Inc()
}

func (r *Recorder) RecordFallback(kind string) {
	r.fallbacks.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
