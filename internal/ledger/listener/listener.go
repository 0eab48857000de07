// Package listener clears pending transactions as their commits arrive in
// filtered block events. This is the fast path; the retry loop is the
// fallback for anything the stream misses.
package listener

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
	"github.com/ledgerbridge/asset-gateway/internal/infra/fabric"
	"github.com/ledgerbridge/asset-gateway/internal/infra/storage"
	"github.com/ledgerbridge/asset-gateway/internal/ledger/metrics"
)

// Listener consumes the filtered block stream and clears every pending
// record whose transaction committed as valid.
type Listener struct {
	events  fabric.BlockEventSource
	querier fabric.LedgerQuerier
	store   storage.PendingStore
	backoff time.Duration
}

func NewListener(
	events fabric.BlockEventSource,
	querier fabric.LedgerQuerier,
	store storage.PendingStore,
) *Listener {
	return &Listener{
		events:  events,
		querier: querier,
		store:   store,
		backoff: 5 * time.Second,
	}
}

// Start consumes block events until ctx is cancelled, resubscribing after a
// backoff whenever the stream drops. A resubscription resumes at the block
// after the last one processed, so an outage never skips commits.
func (l *Listener) Start(ctx context.Context) {
	var next uint64 // 0 subscribes at the next committed block

	if height, err := l.querier.LedgerHeight(ctx); err == nil {
		next = height
	} else {
		slog.Warn("Failed to read ledger height, subscribing at next block", "error", err)
	}

	for {
		if ctx.Err() != nil {
			return
		}

		if err := l.consume(ctx, &next); err != nil {
			slog.Warn("Block event subscription failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

// consume processes blocks until the stream closes, advancing *next past
// each processed block.
func (l *Listener) consume(ctx context.Context, next *uint64) error {
	events, err := l.events.FilteredBlockEvents(ctx, *next)
	if err != nil {
		return err
	}
	slog.Info("Listening for block events", "startBlock", *next)

	for block := range events {
		l.handleBlock(ctx, block)
		*next = block.Number + 1
	}
	return nil
}

func (l *Listener) handleBlock(ctx context.Context, block *domain.Block) {
	metrics.BlockEventsTotal.Inc()
	metrics.LedgerHeight.Set(float64(block.Number + 1))

	for _, event := range block.Transactions {
		if !event.Valid() {
			slog.Debug("Skipping non-valid commit event",
				"txID", event.TransactionID, "code", event.Code)
			continue
		}
		metrics.CommitEventsValidTotal.Inc()

		// Ids this gateway never submitted are harmless no-ops here.
		if err := l.store.Clear(ctx, event.TransactionID); err != nil {
			slog.Error("Failed to clear committed transaction",
				"txID", event.TransactionID, "error", err)
		}
	}

	slog.Debug("Processed block", "block", block.Number, "transactions", len(block.Transactions))
}
