// Package metric exposes Prometheus metrics for liquidstore.
//
// Metrics are registered with the default registry via promauto; the
// daemon serves them on the optional /metrics listener.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsActive tracks currently served protocol connections.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "liquidstore_connections_active",
		Help: "Number of protocol connections currently being served",
	})

	// ConnectionsAccepted counts connections admitted into the pool.
	ConnectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liquidstore_connections_accepted_total",
		Help: "Total number of accepted protocol connections",
	})

	// ConnectionsRejected counts connections closed due to pool saturation.
	ConnectionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liquidstore_connections_rejected_total",
		Help: "Total number of connections rejected because the pool was full",
	})

	// CommandsTotal counts processed commands by verb and outcome.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liquidstore_commands_total",
		Help: "Total number of protocol commands processed",
	}, []string{"command", "status"})

	// CommandDuration measures command handling latency.
	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "liquidstore_command_duration_seconds",
		Help:    "Duration of protocol command handling in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"command"})

	// PersistTotal counts successful persona saves.
	PersistTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liquidstore_persist_total",
		Help: "Total number of successful persona persistence writes",
	})

	// PersistFailures counts failed persona saves (logged and swallowed).
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liquidstore_persist_failures_total",
		Help: "Total number of failed persona persistence writes",
	})
)
