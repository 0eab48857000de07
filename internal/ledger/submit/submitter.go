// Package submit drives transaction submission through the ledger gateway
// with write-ahead persistence of every proposal, so a transaction whose
// commit outcome is unknown can always be redriven from stored state.
package submit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
	"github.com/ledgerbridge/asset-gateway/internal/infra/fabric"
	"github.com/ledgerbridge/asset-gateway/internal/infra/storage"
	"github.com/ledgerbridge/asset-gateway/internal/ledger/classify"
	"github.com/ledgerbridge/asset-gateway/internal/ledger/metrics"
)

// Submitter orchestrates proposal creation, persistence, endorsement and
// broadcast for one contract.
type Submitter struct {
	contract fabric.Contract
	store    storage.PendingStore
}

func NewSubmitter(contract fabric.Contract, store storage.PendingStore) *Submitter {
	return &Submitter{
		contract: contract,
		store:    store,
	}
}

// Submit sends a transaction to the ledger and returns its id without
// waiting for commit. The pending record is written before anything goes on
// the wire; commit confirmation arrives out-of-band through the block
// listener, with the retry loop as fallback. The returned id is set even
// when err is non-nil, as soon as a proposal exists.
func (s *Submitter) Submit(ctx context.Context, name string, args ...string) (string, error) {
	start := time.Now()

	proposal, err := s.contract.NewProposal(name, args...)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("proposal_failed").Inc()
		return "", &domain.TransactionError{Detail: err.Error()}
	}
	txID := proposal.TransactionID()

	state, err := proposal.Bytes()
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("proposal_failed").Inc()
		return txID, &domain.TransactionError{TransactionID: txID, Detail: err.Error()}
	}

	argsJSON, _ := json.Marshal(args)
	if err := s.store.Store(ctx, txID, state, string(argsJSON), time.Now().UnixMilli()); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("store_failed").Inc()
		return txID, &domain.TransactionError{TransactionID: txID, Detail: err.Error()}
	}

	txn, err := proposal.Endorse(ctx)
	if err != nil {
		// The proposal never reached ordering, so nothing can commit:
		// endorsement failures are terminal and the record goes away.
		s.clear(ctx, txID)
		metrics.SubmissionsTotal.WithLabelValues("endorse_failed").Inc()
		return txID, typedError(classify.Classify(err), txID, err)
	}

	if err := txn.Submit(ctx); err != nil {
		category := classify.Classify(err)
		switch category {
		case classify.Duplicate:
			// The network already has this transaction id.
			s.clear(ctx, txID)
			metrics.SubmissionsTotal.WithLabelValues("duplicate").Inc()
			return txID, nil
		case classify.AssetExists, classify.AssetNotFound, classify.TransactionNotFound:
			s.clear(ctx, txID)
			metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
			return txID, typedError(category, txID, err)
		default:
			// Broadcast outcome unknown: the orderer may still commit it.
			// The record stays pending for the listener or retry loop.
			metrics.SubmissionsTotal.WithLabelValues("broadcast_failed").Inc()
			slog.Warn("Broadcast failed, transaction left pending",
				"txID", txID, "category", category.String(), "error", err)
			return txID, &domain.TransactionError{TransactionID: txID, Detail: err.Error()}
		}
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	slog.Info("Transaction submitted", "txID", txID, "name", name)
	return txID, nil
}

// Evaluate runs a read-only query against a single peer. No pending record
// is written and nothing is retried.
func (s *Submitter) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	proposal, err := s.contract.NewProposal(name, args...)
	if err != nil {
		return nil, &domain.TransactionError{Detail: err.Error()}
	}

	result, err := proposal.Evaluate(ctx)
	if err != nil {
		return nil, typedError(classify.Classify(err), proposal.TransactionID(), err)
	}
	return result, nil
}

// clear removes the pending record. A failed clear is logged, not raised:
// the worst case is one extra resubmission that classifies duplicate.
func (s *Submitter) clear(ctx context.Context, txID string) {
	if err := s.store.Clear(ctx, txID); err != nil {
		slog.Error("Failed to clear pending transaction", "txID", txID, "error", err)
	}
}

func typedError(category classify.Category, txID string, err error) error {
	switch category {
	case classify.AssetExists:
		return &domain.AssetExistsError{TransactionID: txID, Detail: err.Error()}
	case classify.AssetNotFound:
		return &domain.AssetNotFoundError{TransactionID: txID, Detail: err.Error()}
	case classify.TransactionNotFound:
		return &domain.TransactionNotFoundError{TransactionID: txID, Detail: err.Error()}
	default:
		return &domain.TransactionError{TransactionID: txID, Detail: err.Error()}
	}
}
