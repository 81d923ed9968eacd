// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package metrics holds the Prometheus collectors for Feedcast. Collectors
// register with the default registry at init and are served on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcast_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcast_api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	// Session registry
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcast_ws_connections",
			Help: "Current number of admitted push sessions",
		},
	)

	WSOnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcast_ws_online_users",
			Help: "Current number of users with at least one push session",
		},
	)

	WSAdmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_ws_admissions_total",
			Help: "Push channel handshakes by outcome",
		},
		[]string{"result"}, // "admitted" or an auth error kind
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedcast_ws_messages_received_total",
			Help: "Total number of frames read from clients",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_ws_errors_total",
			Help: "Total number of push channel errors",
		},
		[]string{"error_type"},
	)

	// Fan-out
	FanoutDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_fanout_deliveries_total",
			Help: "Per-session delivery attempts by target kind and result",
		},
		[]string{"target", "result"}, // target: broadcast|user; result: sent|failed
	)

	FanoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcast_fanout_duration_seconds",
			Help:    "Time to hand one event to every target session",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"target"},
	)

	FanoutEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_fanout_events_total",
			Help: "Events processed by the fan-out engine",
		},
		[]string{"kind", "target"},
	)

	BusPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedcast_bus_publish_failures_total",
			Help: "Events that could not be handed to the delivery bus",
		},
	)

	// Feed queries
	FeedQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcast_feed_query_duration_seconds",
			Help:    "Duration of feed queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	AuthorCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_author_cache_lookups_total",
			Help: "Author summary cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	// Object store
	StorageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_storage_requests_total",
			Help: "Object store reads by backend and result",
		},
		[]string{"backend", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedcast_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcast_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDelivery counts one per-session send.
func RecordDelivery(target string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	FanoutDeliveries.WithLabelValues(target, result).Inc()
}

// RecordStorageRead counts one object store read.
func RecordStorageRead(backend string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	StorageRequests.WithLabelValues(backend, result).Inc()
}

// SetRegistryGauges publishes the registry's current size.
func SetRegistryGauges(users, sessions int) {
	WSOnlineUsers.Set(float64(users))
	WSConnections.Set(float64(sessions))
}

// RecordAuthorCache counts cache hits and misses of one bulk lookup.
func RecordAuthorCache(hits, misses int) {
	if hits > 0 {
		AuthorCacheLookups.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		AuthorCacheLookups.WithLabelValues("miss").Add(float64(misses))
	}
}
