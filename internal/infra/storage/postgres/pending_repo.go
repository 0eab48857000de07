package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
)

// PendingRepo is the PostgreSQL-backed storage.PendingStore.
type PendingRepo struct {
	db *sqlx.DB
}

func NewPendingRepo(db *DB) *PendingRepo {
	return &PendingRepo{db: db.DB}
}

type pendingRow struct {
	TxID        string `db:"tx_id"`
	State       []byte `db:"state"`
	Args        string `db:"args"`
	CreatedAtMS int64  `db:"created_at_ms"`
	Retries     int    `db:"retries"`
}

func (r *PendingRepo) Store(ctx context.Context, id string, state []byte, args string, timestamp int64) error {
	if id == "" {
		return nil
	}
	query := `
		INSERT INTO pending_transactions (tx_id, state, args, created_at_ms, retries)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (tx_id) DO UPDATE
		SET state = EXCLUDED.state, args = EXCLUDED.args,
		    created_at_ms = EXCLUDED.created_at_ms, retries = 0
	`
	if _, err := r.db.ExecContext(ctx, query, id, state, args, timestamp); err != nil {
		return fmt.Errorf("failed to store pending transaction: %w", err)
	}
	return nil
}

func (r *PendingRepo) Load(ctx context.Context, id string) (*domain.PendingTransaction, error) {
	var row pendingRow
	query := `SELECT tx_id, state, args, created_at_ms, retries FROM pending_transactions WHERE tx_id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending transaction: %w", err)
	}
	return &domain.PendingTransaction{
		ID:        row.TxID,
		State:     row.State,
		Args:      row.Args,
		Timestamp: row.CreatedAtMS,
		Retries:   row.Retries,
	}, nil
}

func (r *PendingRepo) IncrementRetry(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pending_transactions SET retries = retries + 1 WHERE tx_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment retry count: %w", err)
	}
	return nil
}

func (r *PendingRepo) Clear(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_transactions WHERE tx_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to clear pending transaction: %w", err)
	}
	return nil
}

func (r *PendingRepo) OldestPending(ctx context.Context) (string, error) {
	var id string
	query := `SELECT tx_id FROM pending_transactions ORDER BY created_at_ms ASC, tx_id ASC LIMIT 1`
	err := r.db.GetContext(ctx, &id, query)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query oldest pending transaction: %w", err)
	}
	return id, nil
}

func (r *PendingRepo) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM pending_transactions`); err != nil {
		return 0, fmt.Errorf("failed to count pending transactions: %w", err)
	}
	return count, nil
}
