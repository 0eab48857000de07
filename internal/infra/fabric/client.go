package fabric

import (
	"context"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/protobuf/proto"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
)

// Client owns the gRPC connection to the gateway peer and implements
// Contract, BlockEventSource and LedgerQuerier against it.
type Client struct {
	conn     *grpc.ClientConn
	gateway  *client.Gateway
	network  *client.Network
	contract *client.Contract
	qscc     *client.Contract
	channel  string
}

// NewClient connects to the gateway peer using the configured MSP identity.
func NewClient(cfg Config) (*Client, error) {
	conn, err := newGrpcConnection(cfg)
	if err != nil {
		return nil, err
	}

	id, err := newIdentity(cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	sign, err := newSign(cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	gw, err := client.Connect(
		id,
		client.WithSign(sign),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(cfg.EvaluateTimeout()),
		client.WithEndorseTimeout(cfg.EndorseTimeout()),
		client.WithSubmitTimeout(cfg.SubmitTimeout()),
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}

	network := gw.GetNetwork(cfg.Channel)

	return &Client{
		conn:     conn,
		gateway:  gw,
		network:  network,
		contract: network.GetContract(cfg.Chaincode),
		qscc:     network.GetContract("qscc"),
		channel:  cfg.Channel,
	}, nil
}

// Close tears down the gateway session and the underlying connection.
func (c *Client) Close() error {
	if err := c.gateway.Close(); err != nil {
		_ = c.conn.Close()
		return fmt.Errorf("failed to close gateway: %w", err)
	}
	return c.conn.Close()
}

func (c *Client) NewProposal(name string, args ...string) (Proposal, error) {
	proposal, err := c.contract.NewProposal(name, client.WithArguments(args...))
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}
	return &ledgerProposal{proposal: proposal}, nil
}

func (c *Client) RestoreProposal(state []byte) (Proposal, error) {
	proposal, err := c.gateway.NewProposal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to restore proposal: %w", err)
	}
	return &ledgerProposal{proposal: proposal}, nil
}

// LedgerHeight queries qscc GetChainInfo for the channel height.
func (c *Client) LedgerHeight(ctx context.Context) (uint64, error) {
	result, err := c.evaluateQscc(ctx, "GetChainInfo", c.channel)
	if err != nil {
		return 0, err
	}
	info := &common.BlockchainInfo{}
	if err := proto.Unmarshal(result, info); err != nil {
		return 0, fmt.Errorf("failed to decode chain info: %w", err)
	}
	return info.GetHeight(), nil
}

// TransactionValidationCode queries qscc GetTransactionByID for the
// validation code of a committed transaction.
func (c *Client) TransactionValidationCode(ctx context.Context, txID string) (domain.ValidationCode, error) {
	result, err := c.evaluateQscc(ctx, "GetTransactionByID", c.channel, txID)
	if err != nil {
		return "", err
	}
	tx := &peer.ProcessedTransaction{}
	if err := proto.Unmarshal(result, tx); err != nil {
		return "", fmt.Errorf("failed to decode processed transaction: %w", err)
	}
	return domain.ValidationCode(peer.TxValidationCode(tx.GetValidationCode()).String()), nil
}

func (c *Client) evaluateQscc(ctx context.Context, fn string, args ...string) ([]byte, error) {
	proposal, err := c.qscc.NewProposal(fn, client.WithArguments(args...))
	if err != nil {
		return nil, fmt.Errorf("failed to create qscc proposal: %w", err)
	}
	return proposal.EvaluateWithContext(ctx)
}

type ledgerProposal struct {
	proposal *client.Proposal
}

func (p *ledgerProposal) TransactionID() string {
	return p.proposal.TransactionID()
}

func (p *ledgerProposal) Bytes() ([]byte, error) {
	return p.proposal.Bytes()
}

func (p *ledgerProposal) Endorse(ctx context.Context) (Transaction, error) {
	txn, err := p.proposal.EndorseWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &ledgerTransaction{transaction: txn}, nil
}

func (p *ledgerProposal) Evaluate(ctx context.Context) ([]byte, error) {
	return p.proposal.EvaluateWithContext(ctx)
}

type ledgerTransaction struct {
	transaction *client.Transaction
}

func (t *ledgerTransaction) TransactionID() string {
	return t.transaction.TransactionID()
}

func (t *ledgerTransaction) Submit(ctx context.Context) error {
	_, err := t.transaction.SubmitWithContext(ctx)
	return err
}

func newGrpcConnection(cfg Config) (*grpc.ClientConn, error) {
	certificatePEM, err := os.ReadFile(cfg.TLSCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read TLS certificate: %w", err)
	}

	certificate, err := identity.CertificateFromPEM(certificatePEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TLS certificate: %w", err)
	}

	certPool := x509.NewCertPool()
	certPool.AddCert(certificate)
	transportCredentials := credentials.NewClientTLSFromCert(certPool, cfg.GatewayPeer)

	conn, err := grpc.NewClient(cfg.PeerEndpoint, grpc.WithTransportCredentials(transportCredentials))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}
	return conn, nil
}

func newIdentity(cfg Config) (*identity.X509Identity, error) {
	certificatePEM, err := readCredential(cfg.CertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing certificate: %w", err)
	}

	certificate, err := identity.CertificateFromPEM(certificatePEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing certificate: %w", err)
	}

	id, err := identity.NewX509Identity(cfg.MSPID, certificate)
	if err != nil {
		return nil, fmt.Errorf("failed to build identity: %w", err)
	}
	return id, nil
}

func newSign(cfg Config) (identity.Sign, error) {
	privateKeyPEM, err := readCredential(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	privateKey, err := identity.PrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	sign, err := identity.NewPrivateKeySign(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build signer: %w", err)
	}
	return sign, nil
}

// readCredential reads a PEM file. MSP layouts often hold a single file
// with a generated name inside a directory (keystore, signcerts), so a
// directory path reads the first entry.
func readCredential(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return os.ReadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no files in %s", path)
	}
	return os.ReadFile(filepath.Join(path, entries[0].Name()))
}
