// Package metrics exposes Prometheus collectors for inventory operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	vehicleMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_vehicle_mutations_total",
		Help: "Vehicle mutations by action and outcome",
	}, []string{"action", "outcome"})

	mediaUploadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_media_upload_failures_total",
		Help: "Failed media uploads by kind",
	}, []string{"kind"})

	mediaDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_media_delete_failures_total",
		Help: "Best-effort media deletions that reported an error",
	})

	listDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_list_duration_seconds",
		Help:    "Latency of vehicle list queries",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordMutation counts a mutation attempt with its outcome ("success" or "failure").
func RecordMutation(action, outcome string) {
	vehicleMutations.WithLabelValues(action, outcome).Inc()
}

// RecordMediaUploadFailure counts a failed upload of the given media kind.
func RecordMediaUploadFailure(kind string) {
	mediaUploadFailures.WithLabelValues(kind).Inc()
}

// RecordMediaDeleteFailure counts a best-effort delete failure.
func RecordMediaDeleteFailure() {
	mediaDeleteFailures.Inc()
}

// ObserveListDuration records the latency of a list query in seconds.
func ObserveListDuration(seconds float64) {
	listDuration.Observe(seconds)
}
