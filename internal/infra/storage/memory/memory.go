package memory

import (
	"context"
	"sync"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
)

// PendingStore is an in-memory storage.PendingStore. It backs the gateway
// when no Redis or PostgreSQL is configured (dev mode) and the unit tests.
type PendingStore struct {
	mu      sync.RWMutex
	records map[string]*domain.PendingTransaction
}

func NewPendingStore() *PendingStore {
	return &PendingStore{
		records: make(map[string]*domain.PendingTransaction),
	}
}

func (s *PendingStore) Store(ctx context.Context, id string, state []byte, args string, timestamp int64) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = &domain.PendingTransaction{
		ID:        id,
		State:     append([]byte(nil), state...),
		Args:      args,
		Timestamp: timestamp,
	}
	return nil
}

func (s *PendingStore) Load(ctx context.Context, id string) (*domain.PendingTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	copied := *record
	copied.State = append([]byte(nil), record.State...)
	return &copied, nil
}

func (s *PendingStore) IncrementRetry(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[id]; ok {
		record.Retries++
	}
	return nil
}

func (s *PendingStore) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *PendingStore) OldestPending(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	oldest := ""
	for id, record := range s.records {
		if oldest == "" {
			oldest = id
			continue
		}
		current := s.records[oldest]
		// Tie-break on id so iteration order never leaks out.
		if record.Timestamp < current.Timestamp ||
			(record.Timestamp == current.Timestamp && id < oldest) {
			oldest = id
		}
	}
	return oldest, nil
}

func (s *PendingStore) PendingCount(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}
