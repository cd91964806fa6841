// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "commute"

var (
	// Transitions counts committed lifecycle transitions by entity and target status.
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "transitions_total", Help: "Committed lifecycle transitions"},
		[]string{"entity", "to"},
	)

	// TransitionConflicts counts conditional writes lost to a concurrent writer.
	TransitionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "transition_conflicts_total", Help: "Transitions rejected because the entity changed concurrently"},
		[]string{"entity"},
	)

	TripsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "trips_generated_total", Help: "Trips materialized from accepted contracts",
	})

	TripGenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "trip_generation_failures_total", Help: "Occurrences that could not be persisted as trips",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
