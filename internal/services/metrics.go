package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auto-posting outcomes.
const (
	outcomePosted    = "posted"
	outcomeSkipped   = "skipped"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)

var (
	autoPostTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "autopost_total",
		Help:      "Auto-posting attempts by event type and outcome.",
	}, []string{"event", "outcome"})

	autoPostUnbalanced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "autopost_unbalanced_total",
		Help:      "Composite auto-post entries skipped because their legs did not balance.",
	}, []string{"event"})

	cashUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "cash_updates_total",
		Help:      "Cash ledger balance updates by transaction type.",
	}, []string{"type"})

	journalOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "journal_operations_total",
		Help:      "Journal entry mutations by operation.",
	}, []string{"op"})
)
