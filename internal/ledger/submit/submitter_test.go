package submit

import (
	"context"
	"errors"
	"testing"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
	"github.com/ledgerbridge/asset-gateway/internal/infra/fabric"
	"github.com/ledgerbridge/asset-gateway/internal/infra/storage/memory"
)

type mockContract struct {
	nextID      string
	proposalErr error
	endorseErr  error
	submitErr   error
	evalResult  []byte
	evalErr     error
}

func (m *mockContract) NewProposal(name string, args ...string) (fabric.Proposal, error) {
	if m.proposalErr != nil {
		return nil, m.proposalErr
	}
	return &mockProposal{contract: m, id: m.nextID}, nil
}

func (m *mockContract) RestoreProposal(state []byte) (fabric.Proposal, error) {
	return &mockProposal{contract: m, id: m.nextID}, nil
}

type mockProposal struct {
	contract *mockContract
	id       string
}

func (p *mockProposal) TransactionID() string { return p.id }

func (p *mockProposal) Bytes() ([]byte, error) { return []byte("proposal-" + p.id), nil }

func (p *mockProposal) Endorse(ctx context.Context) (fabric.Transaction, error) {
	if p.contract.endorseErr != nil {
		return nil, p.contract.endorseErr
	}
	return &mockTransaction{contract: p.contract, id: p.id}, nil
}

func (p *mockProposal) Evaluate(ctx context.Context) ([]byte, error) {
	return p.contract.evalResult, p.contract.evalErr
}

type mockTransaction struct {
	contract *mockContract
	id       string
}

func (t *mockTransaction) TransactionID() string { return t.id }

func (t *mockTransaction) Submit(ctx context.Context) error { return t.contract.submitErr }

// TestSubmit_Success verifies the happy path leaves the record pending for
// the commit listener.
func TestSubmit_Success(t *testing.T) {
	store := memory.NewPendingStore()
	contract := &mockContract{nextID: "tx1"}
	s := NewSubmitter(contract, store)

	txID, err := s.Submit(context.Background(), "CreateAsset", "asset1", "blue")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if txID != "tx1" {
		t.Errorf("Expected txID tx1, got %s", txID)
	}

	rec, err := store.Load(context.Background(), "tx1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec == nil {
		t.Fatal("Expected pending record after successful submit, got none")
	}
	if string(rec.State) != "proposal-tx1" {
		t.Errorf("Expected serialized proposal persisted, got %q", rec.State)
	}
	if rec.Args != `["asset1","blue"]` {
		t.Errorf("Expected JSON args, got %q", rec.Args)
	}
	if rec.Retries != 0 {
		t.Errorf("Expected 0 retries, got %d", rec.Retries)
	}
}

// TestSubmit_EndorseFailureClearsRecord verifies endorsement failures are
// terminal: the record is removed and a typed error carries the id.
func TestSubmit_EndorseFailureClearsRecord(t *testing.T) {
	store := memory.NewPendingStore()
	contract := &mockContract{
		nextID:     "tx2",
		endorseErr: errors.New("chaincode response 500, the asset asset1 already exists"),
	}
	s := NewSubmitter(contract, store)

	txID, err := s.Submit(context.Background(), "CreateAsset", "asset1")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if txID != "tx2" {
		t.Errorf("Expected txID tx2 with the error, got %s", txID)
	}

	var existsErr *domain.AssetExistsError
	if !errors.As(err, &existsErr) {
		t.Fatalf("Expected AssetExistsError, got %T: %v", err, err)
	}
	if existsErr.TransactionID != "tx2" {
		t.Errorf("Expected transaction id on the error, got %q", existsErr.TransactionID)
	}

	rec, _ := store.Load(context.Background(), "tx2")
	if rec != nil {
		t.Error("Expected record cleared after endorsement failure")
	}
}

// TestSubmit_EndorseGenericFailure verifies unmatched endorsement errors
// surface as the generic transaction error.
func TestSubmit_EndorseGenericFailure(t *testing.T) {
	store := memory.NewPendingStore()
	contract := &mockContract{nextID: "tx3", endorseErr: errors.New("connection refused")}
	s := NewSubmitter(contract, store)

	_, err := s.Submit(context.Background(), "CreateAsset", "asset1")

	var txErr *domain.TransactionError
	if !errors.As(err, &txErr) {
		t.Fatalf("Expected TransactionError, got %T: %v", err, err)
	}

	rec, _ := store.Load(context.Background(), "tx3")
	if rec != nil {
		t.Error("Expected record cleared after endorsement failure")
	}
}

// TestSubmit_BroadcastFailureKeepsRecord verifies a failed broadcast keeps
// the record: the orderer may have received the transaction.
func TestSubmit_BroadcastFailureKeepsRecord(t *testing.T) {
	store := memory.NewPendingStore()
	contract := &mockContract{nextID: "tx4", submitErr: errors.New("context deadline exceeded")}
	s := NewSubmitter(contract, store)

	txID, err := s.Submit(context.Background(), "CreateAsset", "asset1")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var txErr *domain.TransactionError
	if !errors.As(err, &txErr) {
		t.Fatalf("Expected TransactionError, got %T: %v", err, err)
	}
	if txErr.TransactionID != "tx4" {
		t.Errorf("Expected transaction id tx4 on the error, got %q", txErr.TransactionID)
	}

	rec, _ := store.Load(context.Background(), txID)
	if rec == nil {
		t.Error("Expected record kept pending after broadcast failure")
	}
}

// TestSubmit_BroadcastDuplicateIsSuccess verifies a duplicate rejection at
// broadcast means the transaction is already committed.
func TestSubmit_BroadcastDuplicateIsSuccess(t *testing.T) {
	store := memory.NewPendingStore()
	contract := &mockContract{nextID: "tx5", submitErr: errors.New("duplicate transaction found")}
	s := NewSubmitter(contract, store)

	txID, err := s.Submit(context.Background(), "CreateAsset", "asset1")
	if err != nil {
		t.Fatalf("Expected duplicate to be treated as success, got %v", err)
	}
	if txID != "tx5" {
		t.Errorf("Expected txID tx5, got %s", txID)
	}

	rec, _ := store.Load(context.Background(), "tx5")
	if rec != nil {
		t.Error("Expected record cleared for duplicate transaction")
	}
}

// TestEvaluate_NoBookkeeping verifies reads never touch the store.
func TestEvaluate_NoBookkeeping(t *testing.T) {
	store := memory.NewPendingStore()
	contract := &mockContract{nextID: "tx6", evalResult: []byte(`{"ID":"asset1"}`)}
	s := NewSubmitter(contract, store)

	result, err := s.Evaluate(context.Background(), "ReadAsset", "asset1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if string(result) != `{"ID":"asset1"}` {
		t.Errorf("Unexpected result %q", result)
	}

	count, _ := store.PendingCount(context.Background())
	if count != 0 {
		t.Errorf("Expected no pending records after evaluate, got %d", count)
	}
}

// TestEvaluate_NotFound verifies read failures classify into the typed
// taxonomy.
func TestEvaluate_NotFound(t *testing.T) {
	contract := &mockContract{
		nextID:  "tx7",
		evalErr: errors.New("the asset asset9 does not exist"),
	}
	s := NewSubmitter(contract, memory.NewPendingStore())

	_, err := s.Evaluate(context.Background(), "ReadAsset", "asset9")

	var notFound *domain.AssetNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected AssetNotFoundError, got %T: %v", err, err)
	}
}
