// Package retry redrives pending transactions whose commit was never
// confirmed. It is the slow-path fallback behind the block commit listener:
// anything still in the store after a crash, a missed block event or a
// transient broadcast failure gets resubmitted from its persisted proposal.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerbridge/asset-gateway/internal/infra/fabric"
	"github.com/ledgerbridge/asset-gateway/internal/infra/storage"
	"github.com/ledgerbridge/asset-gateway/internal/ledger/classify"
	"github.com/ledgerbridge/asset-gateway/internal/ledger/metrics"
)

// Worker retries the oldest pending transaction on a fixed interval.
type Worker struct {
	contract   fabric.Contract
	store      storage.PendingStore
	interval   time.Duration
	maxRetries int
}

func NewWorker(
	contract fabric.Contract,
	store storage.PendingStore,
	interval time.Duration,
	maxRetries int,
) *Worker {
	return &Worker{
		contract:   contract,
		store:      store,
		interval:   interval,
		maxRetries: maxRetries,
	}
}

// Start runs the retry loop until ctx is cancelled. Every failure inside a
// tick is logged and swallowed; this loop is the outer resilience boundary
// and must never terminate on its own.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.processNext(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processNext(ctx)
		}
	}
}

// processNext resubmits the oldest pending transaction, if any. One record
// per tick: a record that stays pending blocks the queue head only until
// the ceiling abandons it.
func (w *Worker) processNext(ctx context.Context) {
	count, err := w.store.PendingCount(ctx)
	if err != nil {
		slog.Error("Failed to read pending count", "error", err)
		return
	}
	metrics.PendingTransactions.Set(float64(count))
	if count > 0 {
		slog.Debug("Transactions awaiting retry", "count", count)
	}

	id, err := w.store.OldestPending(ctx)
	if err != nil {
		slog.Error("Failed to read oldest pending transaction", "error", err)
		return
	}
	if id == "" {
		return
	}

	rec, err := w.store.Load(ctx, id)
	if err != nil {
		slog.Error("Failed to load pending transaction", "txID", id, "error", err)
		return
	}
	if rec == nil {
		// Cleared between the index read and the load. Nothing to do.
		return
	}

	if rec.Retries >= w.maxRetries {
		slog.Warn("Abandoning transaction at retry ceiling", "txID", id, "retries", rec.Retries)
		w.clear(ctx, id)
		metrics.RetriesTotal.WithLabelValues("abandoned_ceiling").Inc()
		return
	}

	if err := w.resubmit(ctx, rec.State); err != nil {
		category := classify.Classify(err)
		switch category {
		case classify.Duplicate:
			// The network committed this id already.
			slog.Info("Transaction already committed", "txID", id)
			w.clear(ctx, id)
			metrics.RetriesTotal.WithLabelValues("duplicate").Inc()
		case classify.Retryable:
			slog.Info("Retryable failure, transaction stays pending",
				"txID", id, "retries", rec.Retries+1, "error", err)
			if err := w.store.IncrementRetry(ctx, id); err != nil {
				slog.Error("Failed to increment retry count", "txID", id, "error", err)
			}
			metrics.RetriesTotal.WithLabelValues("retryable").Inc()
		default:
			// Terminal: the transaction can never commit.
			slog.Warn("Abandoning transaction after terminal failure",
				"txID", id, "category", category.String(), "error", err)
			w.clear(ctx, id)
			metrics.RetriesTotal.WithLabelValues("abandoned_fatal").Inc()
		}
		return
	}

	slog.Info("Transaction resubmitted", "txID", id, "retries", rec.Retries)
	w.clear(ctx, id)
	metrics.RetriesTotal.WithLabelValues("success").Inc()
}

// resubmit restores the signed proposal and drives it through endorsement
// and broadcast under its original transaction id.
func (w *Worker) resubmit(ctx context.Context, state []byte) error {
	proposal, err := w.contract.RestoreProposal(state)
	if err != nil {
		return err
	}

	txn, err := proposal.Endorse(ctx)
	if err != nil {
		return err
	}

	return txn.Submit(ctx)
}

func (w *Worker) clear(ctx context.Context, id string) {
	if err := w.store.Clear(ctx, id); err != nil {
		slog.Error("Failed to clear pending transaction", "txID", id, "error", err)
	}
}
