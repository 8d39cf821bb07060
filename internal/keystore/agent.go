// Package keystore implements a local signing agent that holds a secret seed
// in process. It stands in for the browser extension when the application runs
// as a CLI or server.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
)

// ErrInvalidSeed reports a secret seed that does not parse.
var ErrInvalidSeed = errors.New("invalid secret seed")

// Action names what the agent is asked to approve.
type Action string

const (
	ActionAccess Action = "access"
	ActionSign   Action = "sign"
)

// ApprovalRequest describes one prompt shown to the key holder.
type ApprovalRequest struct {
	Action  Action
	Account string
	Network stellar.NetworkName
	Summary string
}

// Approver decides a prompt. Returning false declines it.
type Approver func(ctx context.Context, request ApprovalRequest) bool

// AutoApprove accepts every prompt.
func AutoApprove(context.Context, ApprovalRequest) bool {
	return true
}

// ApproveAccessOnly shares the address but declines every signature. It is the
// approver of an agent nobody is present to confirm.
func ApproveAccessOnly(_ context.Context, request ApprovalRequest) bool {
	return request.Action == ActionAccess
}

// Option configures an Agent.
type Option func(*Agent)

// WithApprover replaces the default AutoApprove.
func WithApprover(approver Approver) Option {
	return func(agent *Agent) {
		if approver != nil {
			agent.approver = approver
		}
	}
}

// Agent signs with a single key. An agent without a seed reports itself as
// not installed.
type Agent struct {
	keys     *keypair.Full
	network  stellar.Network
	approver Approver

	mu      sync.Mutex
	granted bool
}

var _ wallet.Agent = (*Agent)(nil)

// New builds an Agent for seed on network. An empty seed is allowed.
func New(seed string, network stellar.Network, options ...Option) (*Agent, error) {
	agent := &Agent{network: network, approver: AutoApprove}
	seed = strings.TrimSpace(seed)
	if seed != "" {
		keys, err := keypair.ParseFull(seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
		}
		agent.keys = keys
	}
	for _, option := range options {
		if option != nil {
			option(agent)
		}
	}
	return agent, nil
}

// Installed reports whether a seed is loaded.
func (agent *Agent) Installed(context.Context) bool {
	return agent.keys != nil
}

// RequestAccess prompts for access and returns the account address.
func (agent *Agent) RequestAccess(ctx context.Context) (string, error) {
	if agent.keys == nil {
		return "", wallet.ErrAgentNotInstalled
	}
	approved := agent.approver(ctx, ApprovalRequest{
		Action:  ActionAccess,
		Account: agent.keys.Address(),
		Network: agent.network.Name,
		Summary: "Share your public key with trustlance",
	})
	if !approved {
		return "", wallet.ErrUserRejected
	}
	agent.mu.Lock()
	agent.granted = true
	agent.mu.Unlock()
	return agent.keys.Address(), nil
}

// Address returns the account once access was granted, and an empty string
// before that.
func (agent *Agent) Address(context.Context) (string, error) {
	if agent.keys == nil {
		return "", wallet.ErrAgentNotInstalled
	}
	agent.mu.Lock()
	defer agent.mu.Unlock()
	if !agent.granted {
		return "", nil
	}
	return agent.keys.Address(), nil
}

// Network returns the configured network name.
func (agent *Agent) Network(context.Context) (string, error) {
	if agent.keys == nil {
		return "", wallet.ErrAgentNotInstalled
	}
	return string(agent.network.Name), nil
}

// NetworkDetails returns the configured network constants.
func (agent *Agent) NetworkDetails(context.Context) (wallet.NetworkDetails, error) {
	if agent.keys == nil {
		return wallet.NetworkDetails{}, wallet.ErrAgentNotInstalled
	}
	return wallet.NetworkDetails{
		Network:           string(agent.network.Name),
		NetworkPassphrase: agent.network.Passphrase,
		NetworkURL:        agent.network.HorizonURL,
		SorobanRPCURL:     agent.network.SorobanRPCURL,
	}, nil
}

// SignTransaction decodes the envelope, prompts with a summary and returns the
// envelope signed for networkPassphrase.
func (agent *Agent) SignTransaction(ctx context.Context, envelopeXDR string, networkPassphrase string) (string, error) {
	if agent.keys == nil {
		return "", wallet.ErrAgentNotInstalled
	}
	generic, err := txnbuild.TransactionFromXDR(envelopeXDR)
	if err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}
	transaction, ok := generic.Transaction()
	if !ok {
		return "", errors.New("decode envelope: fee bump transactions are not supported")
	}
	approved := agent.approver(ctx, ApprovalRequest{
		Action:  ActionSign,
		Account: agent.keys.Address(),
		Network: agent.network.Name,
		Summary: summarize(transaction),
	})
	if !approved {
		return "", wallet.ErrUserRejected
	}
	signed, err := transaction.Sign(networkPassphrase, agent.keys)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	return signed.Base64()
}

func summarize(transaction *txnbuild.Transaction) string {
	parts := []string{
		"source " + stellar.Truncate(transaction.SourceAccount().AccountID, 4, 4),
		fmt.Sprintf("fee %d stroops", transaction.BaseFee()),
	}
	for _, operation := range transaction.Operations() {
		if payment, ok := operation.(*txnbuild.Payment); ok {
			parts = append(parts, fmt.Sprintf("pay %s XLM to %s", payment.Amount, stellar.Truncate(payment.Destination, 4, 4)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%T", operation))
	}
	if memo, ok := transaction.Memo().(txnbuild.MemoText); ok && memo != "" {
		parts = append(parts, fmt.Sprintf("memo %q", string(memo)))
	}
	return strings.Join(parts, ", ")
}
