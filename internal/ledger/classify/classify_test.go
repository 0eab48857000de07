package classify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TestClassify_MessageText verifies classification of plain error text.
func TestClassify_MessageText(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Category
	}{
		{"asset exists lowercase article", "the asset abc123 already exists", AssetExists},
		{"asset exists capitalized", "The Asset A1 already exists", AssetExists},
		{"asset exists embedded", "chaincode response 500, the asset asset1 already exists", AssetExists},
		{"asset not found", "the asset abc123 does not exist", AssetNotFound},
		{"asset not found no article", "Asset xyz does not exist", AssetNotFound},
		{"transaction not found", "Failed to get transaction with id tx42, error Entry not found in index", TransactionNotFound},
		{"mvcc conflict", "TxValidationCode = MVCC_READ_CONFLICT", Retryable},
		{"phantom read", "validation failed: PHANTOM_READ_CONFLICT", Retryable},
		{"endorsement policy", "ENDORSEMENT_POLICY_FAILURE", Retryable},
		{"chaincode version", "CHAINCODE_VERSION_CONFLICT", Retryable},
		{"expired chaincode", "EXPIRED_CHAINCODE", Retryable},
		{"duplicate broadcast", "SERVICE_UNAVAILABLE: duplicate transaction found", Duplicate},
		{"duplicate validation code", "TxValidationCode = DUPLICATE_TXID", Duplicate},
		{"unrelated", "connection refused", Fatal},
		{"empty", "", Fatal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(errors.New(tc.text))
			if got != tc.want {
				t.Errorf("Classify(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

// TestClassify_NilError verifies nil input is the only way to get Unknown.
func TestClassify_NilError(t *testing.T) {
	if got := Classify(nil); got != Unknown {
		t.Errorf("Classify(nil) = %v, want Unknown", got)
	}
}

// TestClassify_EndorsementDetails verifies that per-peer detail messages
// attached to a gRPC status are inspected, not just the top-level text.
func TestClassify_EndorsementDetails(t *testing.T) {
	st, err := status.New(codes.Aborted, "failed to endorse transaction").WithDetails(
		&gateway.ErrorDetail{
			Address: "peer0.org1.example.com:7051",
			MspId:   "Org1MSP",
			Message: "chaincode response 500, the asset asset7 already exists",
		},
	)
	if err != nil {
		t.Fatalf("Failed to build status: %v", err)
	}

	if got := Classify(st.Err()); got != AssetExists {
		t.Errorf("Expected AssetExists from endorsement detail, got %v", got)
	}
}

// TestClassify_AllDetailsInspected verifies every peer's detail is checked,
// not only the first.
func TestClassify_AllDetailsInspected(t *testing.T) {
	st, err := status.New(codes.Aborted, "failed to endorse transaction").WithDetails(
		&gateway.ErrorDetail{
			Address: "peer0.org1.example.com:7051",
			MspId:   "Org1MSP",
			Message: "chaincode stream terminated",
		},
		&gateway.ErrorDetail{
			Address: "peer0.org2.example.com:9051",
			MspId:   "Org2MSP",
			Message: "the asset asset9 does not exist",
		},
	)
	if err != nil {
		t.Fatalf("Failed to build status: %v", err)
	}

	if got := Classify(st.Err()); got != AssetNotFound {
		t.Errorf("Expected AssetNotFound from second detail, got %v", got)
	}
}

// TestClassify_PriorityOrder verifies the specific asset patterns win over
// conflict markers when both appear across the details.
func TestClassify_PriorityOrder(t *testing.T) {
	st, err := status.New(codes.Aborted, "failed to endorse transaction").WithDetails(
		&gateway.ErrorDetail{
			Address: "peer0.org1.example.com:7051",
			MspId:   "Org1MSP",
			Message: "MVCC_READ_CONFLICT",
		},
		&gateway.ErrorDetail{
			Address: "peer0.org2.example.com:9051",
			MspId:   "Org2MSP",
			Message: "the asset asset3 already exists",
		},
	)
	if err != nil {
		t.Fatalf("Failed to build status: %v", err)
	}

	if got := Classify(st.Err()); got != AssetExists {
		t.Errorf("Expected AssetExists to win priority, got %v", got)
	}
}

// TestClassify_WrappedError verifies wrapped errors still classify from
// their text.
func TestClassify_WrappedError(t *testing.T) {
	inner := errors.New("the asset wrap1 already exists")
	got := Classify(fmt.Errorf("submit failed: %w", inner))
	if got != AssetExists {
		t.Errorf("Expected AssetExists for wrapped error, got %v", got)
	}
}

// TestCategory_String covers the label mapping used in logs and metrics.
func TestCategory_String(t *testing.T) {
	cases := map[Category]string{
		Unknown:             "unknown",
		AssetExists:         "asset_exists",
		AssetNotFound:       "asset_not_found",
		TransactionNotFound: "transaction_not_found",
		Duplicate:           "duplicate",
		Retryable:           "retryable",
		Fatal:               "fatal",
	}
	for cat, want := range cases {
		if got := cat.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", int(cat), got, want)
		}
	}
}
