// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache reads by key family and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_cache_lookups_total",
		Help: "Cache lookups by key family and result",
	}, []string{"family", "result"})

	// RepositoryLatency records repository call latency by operation and table.
	RepositoryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_repository_latency_seconds",
		Help:    "Repository call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// UploadsTotal counts stored uploads by kind and outcome.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_uploads_total",
		Help: "Uploaded files by kind and outcome",
	}, []string{"kind", "outcome"})

	// UploadBytes records the size of stored uploads.
	UploadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_upload_bytes",
		Help:    "Size of stored uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	}, []string{"kind"})

	// AuthFailures counts rejected authentication and authorization attempts.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_auth_failures_total",
		Help: "Rejected requests by reason",
	}, []string{"reason"})

	// EventsPublished counts domain events handed to the notifier.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_events_published_total",
		Help: "Domain events published by type",
	}, []string{"type"})

	// WebSocketConnections is the number of open event stream connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blog_websocket_connections",
		Help: "Number of open event stream connections",
	})

	// WebSocketDrops counts messages dropped because a client was too slow.
	WebSocketDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_websocket_backpressure_drops_total",
		Help: "Event messages dropped due to backpressure",
	})
)

// TrackRepository returns a func that records latency when called (e.g. defer).
func TrackRepository(operation, table string) func() {
	start := time.Now()
	return func() {
		RepositoryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
