package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheSnapshot is a point-in-time view of the embedding cache counters.
type CacheSnapshot struct {
	Hits    uint64
	Misses  uint64
	Size    int
	MaxSize int
}

// NewCacheRegistry builds a registry whose collectors read the cache through
// snapshot on every scrape.
func NewCacheRegistry(snapshot func() CacheSnapshot) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "findocbot",
			Subsystem: "embedding_cache",
			Name:      "hits_total",
			Help:      "Embedding cache lookups served from memory.",
		}, func() float64 { return float64(snapshot().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "findocbot",
			Subsystem: "embedding_cache",
			Name:      "misses_total",
			Help:      "Embedding cache lookups delegated to the provider.",
		}, func() float64 { return float64(snapshot().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "findocbot",
			Subsystem: "embedding_cache",
			Name:      "entries",
			Help:      "Current number of cached embeddings.",
		}, func() float64 { return float64(snapshot().Size) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "findocbot",
			Subsystem: "embedding_cache",
			Name:      "max_entries",
			Help:      "Configured cache capacity.",
		}, func() float64 { return float64(snapshot().MaxSize) }),
	)
	return reg
}

// Handler exposes reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
