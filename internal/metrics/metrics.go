// Package metrics exposes the engine's Prometheus collectors. Batch counts
// and per-record outcomes are the engine's only user-visible output besides
// the transition ledger, so they are kept deliberately small.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchRuns counts batch invocations per job ("transfer" or "payout").
	BatchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fund_release_batch_runs_total",
		Help: "Number of fund-release batch invocations.",
	}, []string{"job"})

	// RecordsProcessed counts per-record outcomes per job.
	RecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fund_release_records_total",
		Help: "Per-record batch outcomes (succeeded, failed, skipped).",
	}, []string{"job", "outcome"})
)
