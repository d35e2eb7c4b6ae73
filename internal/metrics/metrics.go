// Package metrics provides Prometheus metrics for the files panel.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	movesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filespanel_moves_total",
			Help: "Move and rename requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filespanel_refresh_total",
			Help: "Directory reads by outcome",
		},
		[]string{"outcome"},
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filespanel_refresh_duration_seconds",
			Help:    "Time from read request to completion",
			Buckets: prometheus.DefBuckets,
		},
	)

	treeNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filespanel_tree_nodes",
			Help: "Number of nodes in the current tree",
		},
	)

	pendingMoves = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filespanel_pending_moves",
			Help: "Moves sent to the backend and not yet answered",
		},
	)

	driverOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filespanel_driver_operation_duration_seconds",
			Help:    "Driver call duration by driver and operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)
)

// Move kinds
const (
	KindRename = "rename"
	KindDrop   = "drop"
)

// Move outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeVoid     = "void"
	OutcomeStale    = "stale"
)

// RecordMove counts one move request outcome.
func RecordMove(kind, outcome string) {
	movesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordRefresh counts a completed read and its latency.
func RecordRefresh(outcome string, duration time.Duration) {
	refreshTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeStale {
		refreshDuration.Observe(duration.Seconds())
	}
}

// SetTreeNodes sets the current tree size.
func SetTreeNodes(count int) {
	treeNodes.Set(float64(count))
}

// SetPendingMoves sets the number of in-flight moves.
func SetPendingMoves(count int) {
	pendingMoves.Set(float64(count))
}

// RecordDriverOperation records one driver call.
func RecordDriverOperation(driver, operation string, duration time.Duration) {
	driverOperationDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
