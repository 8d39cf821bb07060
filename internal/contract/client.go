// Package contract is the seam for the on-chain escrow contract. No contract is
// deployed yet, so every state-changing call validates what it can and then
// fails with stellar.CodeContractNotDeployed.
package contract

import (
	"context"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
)

const (
	messageNotDeployed       = "Contract not deployed yet. Please deploy the escrow contract first."
	messageInvalidContractID = "Invalid contract ID"
)

// InitializeParams are the inputs of a new on-chain escrow.
type InitializeParams struct {
	Caller     string
	Freelancer string
	Amount     string
	Deadline   time.Time
	Metadata   string
}

// Details is the contract's view of one escrow.
type Details struct {
	ID         string
	Client     string
	Freelancer string
	Amount     stellar.Amount
	Status     ledger.Status
	Deadline   time.Time
	CreatedAt  time.Time
	Metadata   string
}

// Client calls the escrow contract identified by contractID.
type Client struct {
	contractID string
	rpcURL     string
	nowFn      func() time.Time
}

var _ ledger.ContractClient = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithRPCURL records the contract RPC endpoint.
func WithRPCURL(rpcURL string) Option {
	return func(client *Client) {
		client.rpcURL = strings.TrimSpace(rpcURL)
	}
}

// WithClock replaces time.Now for deadline checks.
func WithClock(now func() time.Time) Option {
	return func(client *Client) {
		if now != nil {
			client.nowFn = now
		}
	}
}

// New returns a Client. An empty contractID is accepted and means no contract
// is configured; a non-empty one must be a contract address.
func New(contractID string, options ...Option) (*Client, error) {
	contractID = strings.TrimSpace(contractID)
	if contractID != "" && !stellar.IsValidContractAddress(contractID) {
		return nil, stellar.NewError(stellar.CodeInvalidContractID, messageInvalidContractID, nil)
	}
	client := &Client{contractID: contractID, nowFn: time.Now}
	for _, option := range options {
		if option != nil {
			option(client)
		}
	}
	return client, nil
}

// ContractID returns the configured contract id, possibly empty.
func (client *Client) ContractID() string {
	return client.contractID
}

// RPCURL returns the configured RPC endpoint, possibly empty.
func (client *Client) RPCURL() string {
	return client.rpcURL
}

// Deployed reports whether calls can reach a contract. Always false for now.
func (client *Client) Deployed() bool {
	return false
}

// Initialize validates params and creates the escrow on chain.
func (client *Client) Initialize(ctx context.Context, params InitializeParams) (string, error) {
	if !stellar.IsValidAccountAddress(strings.TrimSpace(params.Freelancer)) {
		return "", stellar.NewError(stellar.CodeInvalidAddress, "Invalid freelancer address", nil)
	}
	if _, err := stellar.ParseAmount(params.Amount); err != nil {
		return "", stellar.NewError(stellar.CodeInvalidAmount, "Amount must be positive", err)
	}
	if !params.Deadline.After(client.nowFn()) {
		return "", stellar.NewError(stellar.CodeInvalidDeadline, "Deadline must be in the future", nil)
	}
	if strings.TrimSpace(params.Caller) == "" {
		return "", stellar.NewError(stellar.CodeWalletNotConnected, "Wallet not connected", nil)
	}
	return "", notDeployed()
}

// Fund deposits the escrow amount.
func (client *Client) Fund(context.Context, string, string) error {
	return notDeployed()
}

// Release pays the freelancer.
func (client *Client) Release(context.Context, string, string) error {
	return notDeployed()
}

// Refund returns the deposit to the client.
func (client *Client) Refund(context.Context, string, string) error {
	return notDeployed()
}

// RequestRevision records a revision request with note.
func (client *Client) RequestRevision(context.Context, string, string, string) error {
	return notDeployed()
}

// RaiseDispute freezes the escrow for arbitration.
func (client *Client) RaiseDispute(context.Context, string, string) error {
	return notDeployed()
}

// EscrowDetails reads one escrow. The second result is false when the escrow
// is unknown, which is every escrow until a contract is deployed.
func (client *Client) EscrowDetails(context.Context, string) (Details, bool, error) {
	return Details{}, false, nil
}

// EscrowCount returns the number of escrows held by the contract.
func (client *Client) EscrowCount(context.Context) (int64, error) {
	return 0, nil
}

func notDeployed() error {
	return stellar.NewError(stellar.CodeContractNotDeployed, messageNotDeployed, nil)
}
