// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// VerificationSubmissions counts identity verification submissions by kind.
	VerificationSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentloop_verification_submissions_total",
		Help: "Total number of identity verification submissions by kind (initial, resubmission)",
	}, []string{"kind"})

	// VerificationReviews counts identity verification reviews by outcome.
	VerificationReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentloop_verification_reviews_total",
		Help: "Total number of identity verification reviews by outcome",
	}, []string{"outcome"})

	// ProductReviews counts product listing reviews by outcome.
	ProductReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentloop_product_reviews_total",
		Help: "Total number of product listing reviews by outcome",
	}, []string{"outcome"})

	// AdminTransitions counts admin lifecycle transitions by action.
	AdminTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentloop_admin_transitions_total",
		Help: "Total number of admin account lifecycle transitions by action",
	}, []string{"action"})

	// AuthFailures counts rejected authentication attempts by principal type and reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentloop_auth_failures_total",
		Help: "Total number of rejected authentication attempts",
	}, []string{"principal_type", "reason"})

	// TokensRevoked counts bulk token revocations by principal type.
	TokensRevoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentloop_tokens_revoked_total",
		Help: "Total number of bulk token revocations",
	}, []string{"principal_type"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentloop_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentloop_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EventFeedConnections is the gauge of active admin event feed connections.
	EventFeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentloop_event_feed_connections",
		Help: "Number of active admin event feed WebSocket connections",
	})

	// EventFeedDrops counts event feed messages dropped due to backpressure.
	EventFeedDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentloop_event_feed_drops_total",
		Help: "Total number of event feed messages dropped due to backpressure",
	}, []string{"reason"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
