package fabric

import (
	"context"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
)

// Contract is the boundary between the submission machinery and the ledger
// network. It creates signed proposals and restores previously persisted
// ones, so a transaction can be resubmitted later under its original id.
type Contract interface {
	// NewProposal builds and signs a proposal for the named transaction.
	// No network traffic happens here; the proposal carries its final
	// transaction id and can be serialized before anything is sent.
	NewProposal(name string, args ...string) (Proposal, error)

	// RestoreProposal rebuilds a proposal from bytes produced by
	// Proposal.Bytes. The restored proposal keeps the original signature
	// and transaction id.
	RestoreProposal(state []byte) (Proposal, error)
}

// Proposal is a signed transaction proposal.
type Proposal interface {
	// TransactionID returns the network-assigned transaction id.
	TransactionID() string

	// Bytes serializes the signed proposal for persistence.
	Bytes() ([]byte, error)

	// Endorse collects endorsements from the required peers.
	Endorse(ctx context.Context) (Transaction, error)

	// Evaluate runs the proposal on a single peer and returns the result
	// without sending anything to the ordering service.
	Evaluate(ctx context.Context) ([]byte, error)
}

// Transaction is an endorsed transaction ready for ordering.
type Transaction interface {
	// TransactionID returns the network-assigned transaction id.
	TransactionID() string

	// Submit sends the endorsed transaction to the ordering service. It
	// returns once the orderer accepts the broadcast; it does not wait
	// for the transaction to commit.
	Submit(ctx context.Context) error
}

// BlockEventSource streams committed blocks from the network.
type BlockEventSource interface {
	// FilteredBlockEvents subscribes to block events starting at the
	// given block number; zero subscribes at the next committed block.
	// The returned channel closes when the stream ends or ctx is
	// cancelled.
	FilteredBlockEvents(ctx context.Context, startBlock uint64) (<-chan *domain.Block, error)
}

// LedgerQuerier answers system-chaincode queries about the channel.
type LedgerQuerier interface {
	// LedgerHeight returns the current block height of the channel.
	LedgerHeight(ctx context.Context) (uint64, error)

	// TransactionValidationCode returns the validation code recorded for
	// a committed transaction id.
	TransactionValidationCode(ctx context.Context, txID string) (domain.ValidationCode, error)
}
