package domain

import "fmt"

// TransactionError is the generic terminal failure for a ledger invocation.
// The transaction id is always attached so callers can poll its status even
// after a failed submit.
type TransactionError struct {
	TransactionID string
	Detail        string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.TransactionID, e.Detail)
}

// AssetExistsError is raised when the chaincode rejects a write because the
// asset already exists.
type AssetExistsError struct {
	TransactionID string
	Detail        string
}

func (e *AssetExistsError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.TransactionID, e.Detail)
}

// AssetNotFoundError is raised when the chaincode rejects an operation
// because the asset does not exist.
type AssetNotFoundError struct {
	TransactionID string
	Detail        string
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.TransactionID, e.Detail)
}

// TransactionNotFoundError is raised when the ledger has no record of the
// requested transaction id.
type TransactionNotFoundError struct {
	TransactionID string
	Detail        string
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found: %s", e.TransactionID, e.Detail)
}
