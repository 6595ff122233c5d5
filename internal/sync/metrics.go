package sync

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// syncRuns counts completed runs by trigger and outcome ("ok" when every
	// report succeeded, "partial" otherwise, "error" when the run aborted).
	syncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewdesk_sync_runs_total",
			Help: "Total number of sync runs.",
		},
		[]string{"trigger", "outcome"},
	)

	// syncDuration records full-run duration. Trigger is omitted to keep
	// histogram cardinality down.
	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crewdesk_sync_duration_seconds",
			Help:    "Duration of sync runs in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// reconcileFailures counts per-entity failures by phase and error kind.
	reconcileFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewdesk_reconcile_failures_total",
			Help: "Total number of per-entity reconciliation failures.",
		},
		[]string{"phase", "kind"},
	)

	// boardDuration records per-board refresh latency.
	boardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crewdesk_board_refresh_duration_seconds",
			Help:    "Duration of board refreshes in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"board"},
	)
)

func init() {
	prometheus.MustRegister(syncRuns, syncDuration, reconcileFailures, boardDuration)
}
