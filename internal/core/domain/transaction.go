package domain

// PendingTransaction represents a ledger write that has been signed and
// handed to the network but whose commit outcome is not yet known. A record
// exists in the pending store iff the outcome is still open.
type PendingTransaction struct {
	ID        string `json:"transaction_id"`
	State     []byte `json:"state"`     // serialized signed proposal, resubmittable as-is
	Args      string `json:"args"`      // original argument list as JSON, for diagnostics
	Timestamp int64  `json:"timestamp"` // submission time in unix millis, retry ordering key
	Retries   int    `json:"retries"`
}

// ValidationCode is the peer's verdict on a committed transaction, as a
// string ("VALID", "MVCC_READ_CONFLICT", ...).
type ValidationCode string

// ValidationCodeValid marks a transaction committed successfully.
const ValidationCodeValid ValidationCode = "VALID"

// CommitEvent is one transaction's entry in a committed block.
type CommitEvent struct {
	TransactionID string
	Code          ValidationCode
}

// Valid reports whether the transaction was committed successfully.
func (e CommitEvent) Valid() bool {
	return e.Code == ValidationCodeValid
}

// Block is the distilled view of a committed block the gateway cares about:
// its number and the commit verdict of each transaction in it.
type Block struct {
	Number       uint64
	ChannelID    string
	Transactions []CommitEvent
}
