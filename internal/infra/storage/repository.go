package storage

import (
	"context"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
)

// PendingStore persists submitted-but-unconfirmed transactions. A record
// exists iff the transaction's outcome is still unknown; the retry worker
// and the block listener both delete through Clear, which is idempotent so
// their races are harmless. Implementations must make each operation atomic
// per key: a reader never observes a record without its index entry or the
// other way around.
type PendingStore interface {
	// Store writes the record and inserts its id into the timestamp-ordered
	// index. Storing an empty id is a no-op.
	Store(ctx context.Context, id string, state []byte, args string, timestamp int64) error

	// Load retrieves the record for id, or nil if absent.
	Load(ctx context.Context, id string) (*domain.PendingTransaction, error)

	// IncrementRetry bumps the retry counter by one on an existing record.
	// Empty ids and records deleted by a concurrent Clear are no-ops.
	IncrementRetry(ctx context.Context, id string) error

	// Clear removes the record and its index entry. Clearing an unknown or
	// already-cleared id is not an error.
	Clear(ctx context.Context, id string) error

	// OldestPending returns the indexed id with the smallest timestamp, or
	// "" when nothing is pending.
	OldestPending(ctx context.Context) (string, error)

	// PendingCount returns the number of indexed transactions.
	PendingCount(ctx context.Context) (int64, error)
}
