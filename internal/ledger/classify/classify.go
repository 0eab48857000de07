// Package classify maps free-text ledger errors onto the outcome taxonomy
// the submission and retry paths act on. Peers report chaincode failures as
// detail messages with no structured codes, so classification is pattern
// matching over every detail entry the error carries.
package classify

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"google.golang.org/grpc/status"
)

// Category is the classified outcome of a ledger error.
type Category int

const (
	// Unknown is returned only for a nil error.
	Unknown Category = iota
	// AssetExists: the chaincode rejected a create because the asset id is taken.
	AssetExists
	// AssetNotFound: the chaincode rejected an update/read of a missing asset.
	AssetNotFound
	// TransactionNotFound: the ledger has no record of the requested transaction id.
	TransactionNotFound
	// Duplicate: the transaction id was already committed. Callers treat this
	// as success and clean up, never resubmit.
	Duplicate
	// Retryable: a transient validation conflict; resubmission may succeed.
	Retryable
	// Fatal: nothing matched; the transaction will not succeed by retrying.
	Fatal
)

func (c Category) String() string {
	switch c {
	case AssetExists:
		return "asset_exists"
	case AssetNotFound:
		return "asset_not_found"
	case TransactionNotFound:
		return "transaction_not_found"
	case Duplicate:
		return "duplicate"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

var (
	assetExistsPattern   = regexp.MustCompile(`([tT]he )?[aA]sset \w+ already exists`)
	assetNotFoundPattern = regexp.MustCompile(`([tT]he )?[aA]sset \w+ does not exist`)
	txNotFoundPattern    = regexp.MustCompile(`Failed to get transaction with id \w+, error Entry not found in index`)
)

// duplicateMarkers identify a transaction id the network has already
// committed. Checked before the conflict markers: an already-committed
// transaction must never be resubmitted.
var duplicateMarkers = []string{
	"duplicate transaction found",
	"DUPLICATE_TXID",
}

// retryableMarkers are validation conflicts that a later resubmission can
// clear once the contending transaction has settled.
var retryableMarkers = []string{
	"MVCC_READ_CONFLICT",
	"PHANTOM_READ_CONFLICT",
	"ENDORSEMENT_POLICY_FAILURE",
	"CHAINCODE_VERSION_CONFLICT",
	"EXPIRED_CHAINCODE",
}

// Classify determines the category for a ledger error. It inspects every
// endorsement detail across all failure groups; the first category to match
// any detail wins, in declaration order. It never fails: an error whose
// shape cannot be parsed classifies Fatal.
func Classify(err error) Category {
	if err == nil {
		return Unknown
	}

	msgs := detailMessages(err)

	if matchAny(msgs, assetExistsPattern) {
		return AssetExists
	}
	if matchAny(msgs, assetNotFoundPattern) {
		return AssetNotFound
	}
	if matchAny(msgs, txNotFoundPattern) {
		return TransactionNotFound
	}
	if containsAny(msgs, duplicateMarkers) {
		return Duplicate
	}
	if containsAny(msgs, retryableMarkers) {
		return Retryable
	}
	return Fatal
}

// detailMessages flattens an error into the texts worth matching: the
// error's own message plus every per-peer endorsement detail attached to
// its gRPC status, when it carries one.
func detailMessages(err error) []string {
	msgs := []string{err.Error()}
	for _, d := range status.Convert(err).Details() {
		detail, ok := d.(*gateway.ErrorDetail)
		if !ok {
			slog.Debug("Skipping unrecognized error detail", "type", fmt.Sprintf("%T", d))
			continue
		}
		msgs = append(msgs, detail.GetMessage())
	}
	return msgs
}

func matchAny(msgs []string, pattern *regexp.Regexp) bool {
	for _, m := range msgs {
		if pattern.MatchString(m) {
			return true
		}
	}
	return false
}

func containsAny(msgs []string, markers []string) bool {
	for _, m := range msgs {
		for _, marker := range markers {
			if strings.Contains(m, marker) {
				return true
			}
		}
	}
	return false
}
