// Package observability exposes the service's Prometheus collectors and the
// helpers the rest of the code observes through.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	coverCells = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cover_cells",
			Help:    "Number of cells returned per covering.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		},
		[]string{"scheme"},
	)

	coverVisited = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cover_cells_visited",
			Help:    "Number of cells visited by the ring-expansion search.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"scheme"},
	)

	coverTruncated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cover_truncated_total",
			Help: "Coverings truncated by the max-cells cap.",
		},
		[]string{"scheme"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Covering cache results by outcome.",
		},
		[]string{"outcome"},
	)

	cacheOpSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Latency of covering cache operations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"op", "status"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveCover(scheme string, cells, visited int, complete bool) {
	coverCells.WithLabelValues(scheme).Observe(float64(cells))
	coverVisited.WithLabelValues(scheme).Observe(float64(visited))
	if !complete {
		coverTruncated.WithLabelValues(scheme).Inc()
	}
}

func IncCacheHit()  { cacheResults.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheResults.WithLabelValues("miss").Inc() }

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	cacheOpSeconds.WithLabelValues(op, status).Observe(durationSeconds)
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
