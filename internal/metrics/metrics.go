// Package metrics holds the prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector this gateway registers. The cache
// gauges mirror the cumulative hit/miss/eviction counters the s3client
// and zarrman caches keep internally: since those are read back as a
// point-in-time snapshot rather than incremented inline, they are
// exposed as gauges rather than counters.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec

	S3CacheItems     prometheus.Gauge
	S3CacheHits      prometheus.Gauge
	S3CacheMisses    prometheus.Gauge
	S3CacheEvictions prometheus.Gauge

	ManifestItems     prometheus.Gauge
	ManifestBytes     prometheus.Gauge
	ManifestHits      prometheus.Gauge
	ManifestMisses    prometheus.Gauge
	ManifestEvictions prometheus.Gauge
}

// New registers every collector against reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dandidav_requests_total",
			Help: "Total HTTP requests handled, by method and status class.",
		}, []string{"method", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dandidav_request_duration_seconds",
			Help:    "Request handling latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),

		UpstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dandidav_upstream_errors_total",
			Help: "Upstream call failures, by error kind.",
		}, []string{"kind"}),

		S3CacheItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dandidav_s3_client_cache_items",
			Help: "Current entries in the S3 bucket-client LRU cache.",
		}),
		S3CacheHits: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dandidav_s3_client_cache_hits",
			Help: "Cumulative S3 bucket-client cache hits.",
		}),
		S3CacheMisses: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dandidav_s3_client_cache_misses",
			Help: "Cumulative S3 bucket-client cache misses.",
		}),
		S3CacheEvictions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dandidav_s3_client_cache_evictions",
			Help: "Cumulative S3 bucket-client cache evictions.",
		}),

		ManifestItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dandidav_manifest_cache_items",
			Help: "Current entries in the Zarr-manifest cache.",
		}),
		ManifestBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dandidav_manifest_cache_bytes",
			Help: "Current byte footprint of the Zarr-manifest cache.",
		}),
		ManifestHits: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dandidav_manifest_cache_hits",
			Help: "Cumulative Zarr-manifest cache hits.",
		}),
		ManifestMisses: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dandidav_manifest_cache_misses",
			Help: "Cumulative Zarr-manifest cache misses.",
		}),
		ManifestEvictions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dandidav_manifest_cache_evictions",
			Help: "Cumulative Zarr-manifest cache evictions.",
		}),
	}
}

// ObserveS3CacheStats refreshes the S3 cache gauges from a current
// snapshot.
func (m *Metrics) ObserveS3CacheStats(items int, hits, misses, evictions int64) {
	m.S3CacheItems.Set(float64(items))
	m.S3CacheHits.Set(float64(hits))
	m.S3CacheMisses.Set(float64(misses))
	m.S3CacheEvictions.Set(float64(evictions))
}

// ObserveManifestCacheStats refreshes the manifest cache gauges from a
// current snapshot.
func (m *Metrics) ObserveManifestCacheStats(items int, totalBytes, hits, misses, evictions int64) {
	m.ManifestItems.Set(float64(items))
	m.ManifestBytes.Set(float64(totalBytes))
	m.ManifestHits.Set(float64(hits))
	m.ManifestMisses.Set(float64(misses))
	m.ManifestEvictions.Set(float64(evictions))
}
