package wallet

import (
	"context"
	"errors"
	"strings"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
)

// InstallURL is where users obtain the browser signing agent.
const InstallURL = "https://www.freighter.app/"

// Agent errors. Implementations wrap these so callers can tell a missing agent
// from a user who declined.
var (
	ErrAgentNotInstalled = errors.New("signing agent not installed")
	ErrUserRejected      = errors.New("user rejected the request")
)

// NetworkDetails is the agent's view of the network it is configured for.
type NetworkDetails struct {
	Network           string
	NetworkPassphrase string
	NetworkURL        string
	SorobanRPCURL     string
}

// Agent is an out-of-process signer holding the user's key material. The
// application only consumes this contract.
type Agent interface {
	Installed(ctx context.Context) bool
	RequestAccess(ctx context.Context) (string, error)
	Address(ctx context.Context) (string, error)
	Network(ctx context.Context) (string, error)
	NetworkDetails(ctx context.Context) (NetworkDetails, error)
	SignTransaction(ctx context.Context, envelopeXDR string, networkPassphrase string) (string, error)
}

// AccountLoader reads account state from the ledger.
type AccountLoader interface {
	LoadAccount(ctx context.Context, accountID string) (stellar.Account, error)
}

// IsRejection reports whether an agent error means the user declined. Agents
// that do not wrap ErrUserRejected are recognized by message.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "rejected") || strings.Contains(message, "cancelled") || strings.Contains(message, "canceled")
}
