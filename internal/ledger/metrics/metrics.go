package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal tracks transaction submissions by result
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_submissions_total",
			Help: "Total number of transaction submissions",
		},
		[]string{"result"},
	)

	// SubmitDuration tracks end-to-end submission latency
	SubmitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_submit_duration_seconds",
			Help:    "Transaction submission latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PendingTransactions tracks the current depth of the retry queue
	PendingTransactions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_pending_transactions",
			Help: "Number of transactions awaiting commit or retry",
		},
	)

	// RetriesTotal tracks retry attempts by outcome
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_retries_total",
			Help: "Total number of retry attempts",
		},
		[]string{"outcome"},
	)

	// BlockEventsTotal tracks block events received from the ledger
	BlockEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_block_events_total",
			Help: "Total number of block events received",
		},
	)

	// CommitEventsValidTotal tracks valid transaction commit events observed
	CommitEventsValidTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_commit_events_valid_total",
			Help: "Total number of valid transaction commit events observed",
		},
	)

	// LedgerHeight tracks the latest known block height of the channel
	LedgerHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_ledger_height",
			Help: "Latest known block height of the channel",
		},
	)

	// DBConnectionPoolUsage tracks database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)
)
