package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartbus_http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	EngineOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartbus_engine_operations_total",
		Help: "Coordinator operations by name and outcome kind",
	}, []string{"operation", "outcome"})

	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartbus_outbox_events_published_total",
		Help: "The total number of outbox events published to Kafka",
	})

	OutboxPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartbus_outbox_publish_errors_total",
		Help: "The total number of failed outbox publish attempts",
	})

	GatewayBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "smartbus_gateway_breaker_state",
		Help: "Payment gateway circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})

	HoldsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartbus_seat_holds_expired_total",
		Help: "Pending bookings cancelled because their seat hold lapsed",
	})

	LocationCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartbus_location_cache_lookups_total",
		Help: "Position cache reads by result (hit or miss)",
	}, []string{"result"})
)

// Outcome labels an engine call by its error kind, or "ok".
func Outcome(kind string) string {
	if kind == "" {
		return "ok"
	}
	return kind
}
