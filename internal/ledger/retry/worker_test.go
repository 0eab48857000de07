package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ledgerbridge/asset-gateway/internal/infra/fabric"
	"github.com/ledgerbridge/asset-gateway/internal/infra/storage/memory"
)

type mockContract struct {
	restoreErr error
	endorseErr error
	submitErr  error
	restored   int
	submitted  int
}

func (m *mockContract) NewProposal(name string, args ...string) (fabric.Proposal, error) {
	return &mockProposal{contract: m}, nil
}

func (m *mockContract) RestoreProposal(state []byte) (fabric.Proposal, error) {
	m.restored++
	if m.restoreErr != nil {
		return nil, m.restoreErr
	}
	return &mockProposal{contract: m, id: string(state)}, nil
}

type mockProposal struct {
	contract *mockContract
	id       string
}

func (p *mockProposal) TransactionID() string  { return p.id }
func (p *mockProposal) Bytes() ([]byte, error) { return []byte(p.id), nil }

func (p *mockProposal) Endorse(ctx context.Context) (fabric.Transaction, error) {
	if p.contract.endorseErr != nil {
		return nil, p.contract.endorseErr
	}
	return &mockTransaction{contract: p.contract, id: p.id}, nil
}

func (p *mockProposal) Evaluate(ctx context.Context) ([]byte, error) { return nil, nil }

type mockTransaction struct {
	contract *mockContract
	id       string
}

func (t *mockTransaction) TransactionID() string { return t.id }

func (t *mockTransaction) Submit(ctx context.Context) error {
	t.contract.submitted++
	return t.contract.submitErr
}

func newWorker(contract *mockContract, store *memory.PendingStore, maxRetries int) *Worker {
	return NewWorker(contract, store, 10*time.Millisecond, maxRetries)
}

// TestProcessNext_RetriesThenSucceeds walks one record through three
// retryable failures and a final success, checking the counter after each
// tick.
func TestProcessNext_RetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPendingStore()
	contract := &mockContract{endorseErr: errors.New("MVCC_READ_CONFLICT")}
	w := newWorker(contract, store, 5)

	if err := store.Store(ctx, "tx1", []byte("tx1"), `["a"]`, 100); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		w.processNext(ctx)
		rec, err := store.Load(ctx, "tx1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if rec == nil {
			t.Fatalf("Record gone after %d retryable failures", i)
		}
		if rec.Retries != i {
			t.Errorf("Expected %d retries, got %d", i, rec.Retries)
		}
	}

	contract.endorseErr = nil
	w.processNext(ctx)

	rec, _ := store.Load(ctx, "tx1")
	if rec != nil {
		t.Error("Expected record cleared after successful resubmission")
	}
	if contract.submitted != 1 {
		t.Errorf("Expected 1 broadcast, got %d", contract.submitted)
	}
}

// TestProcessNext_AbandonsAtCeiling verifies a record at the ceiling is
// cleared without another network attempt.
func TestProcessNext_AbandonsAtCeiling(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPendingStore()
	contract := &mockContract{}
	w := newWorker(contract, store, 2)

	store.Store(ctx, "tx1", []byte("tx1"), "[]", 100)
	store.IncrementRetry(ctx, "tx1")
	store.IncrementRetry(ctx, "tx1")

	w.processNext(ctx)

	rec, _ := store.Load(ctx, "tx1")
	if rec != nil {
		t.Error("Expected record abandoned at retry ceiling")
	}
	if contract.restored != 0 {
		t.Errorf("Expected no resubmission at ceiling, got %d", contract.restored)
	}
}

// TestProcessNext_DuplicateClears verifies an already-committed id is
// treated as success.
func TestProcessNext_DuplicateClears(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPendingStore()
	contract := &mockContract{submitErr: errors.New("SERVICE_UNAVAILABLE: duplicate transaction found")}
	w := newWorker(contract, store, 5)

	store.Store(ctx, "tx1", []byte("tx1"), "[]", 100)
	w.processNext(ctx)

	rec, _ := store.Load(ctx, "tx1")
	if rec != nil {
		t.Error("Expected duplicate transaction cleared")
	}
}

// TestProcessNext_TerminalFailureClears verifies fatal classifications drop
// the record instead of retrying it forever.
func TestProcessNext_TerminalFailureClears(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPendingStore()
	contract := &mockContract{endorseErr: errors.New("the asset asset1 already exists")}
	w := newWorker(contract, store, 5)

	store.Store(ctx, "tx1", []byte("tx1"), "[]", 100)
	w.processNext(ctx)

	rec, _ := store.Load(ctx, "tx1")
	if rec != nil {
		t.Error("Expected record cleared after terminal failure")
	}
}

// TestProcessNext_MalformedStateAbandoned verifies state that cannot be
// restored is dropped rather than blocking the queue head.
func TestProcessNext_MalformedStateAbandoned(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPendingStore()
	contract := &mockContract{restoreErr: errors.New("proto: cannot parse invalid wire-format data")}
	w := newWorker(contract, store, 5)

	store.Store(ctx, "tx1", []byte("garbage"), "[]", 100)
	w.processNext(ctx)

	rec, _ := store.Load(ctx, "tx1")
	if rec != nil {
		t.Error("Expected malformed record abandoned")
	}
}

// TestProcessNext_EmptyQueue verifies a tick with nothing pending does no
// work.
func TestProcessNext_EmptyQueue(t *testing.T) {
	contract := &mockContract{}
	w := newWorker(contract, memory.NewPendingStore(), 5)

	w.processNext(context.Background())

	if contract.restored != 0 {
		t.Errorf("Expected no restores on empty queue, got %d", contract.restored)
	}
}

// TestProcessNext_OneRecordPerTick verifies only the oldest record is
// touched each tick.
func TestProcessNext_OneRecordPerTick(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPendingStore()
	contract := &mockContract{endorseErr: errors.New("PHANTOM_READ_CONFLICT")}
	w := newWorker(contract, store, 5)

	store.Store(ctx, "old", []byte("old"), "[]", 100)
	store.Store(ctx, "new", []byte("new"), "[]", 200)

	w.processNext(ctx)

	oldRec, _ := store.Load(ctx, "old")
	newRec, _ := store.Load(ctx, "new")
	if oldRec == nil || oldRec.Retries != 1 {
		t.Errorf("Expected oldest record retried once, got %+v", oldRec)
	}
	if newRec == nil || newRec.Retries != 0 {
		t.Errorf("Expected newer record untouched, got %+v", newRec)
	}
}

// TestStart_StopsOnCancel verifies the loop exits promptly when the context
// is cancelled.
func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := newWorker(&mockContract{}, memory.NewPendingStore(), 5)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Worker did not stop after context cancellation")
	}
}
