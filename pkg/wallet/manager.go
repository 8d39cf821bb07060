package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
)

// ErrInvalidManagerConfig reports a Manager wired without its dependencies.
var ErrInvalidManagerConfig = errors.New("invalid wallet manager config")

// Manager owns one wallet session. Create one per UI context; managers do not
// coordinate with each other.
type Manager struct {
	agent         Agent
	accounts      AccountLoader
	network       stellar.Network
	strictNetwork bool
	logger        EventLogger

	mu      sync.Mutex
	session Session
}

// NewManager wires a Manager. A nil agent behaves as an agent that is not installed.
func NewManager(agent Agent, accounts AccountLoader, network stellar.Network, options ...ManagerOption) (*Manager, error) {
	if accounts == nil {
		return nil, fmt.Errorf("%w: account loader is nil", ErrInvalidManagerConfig)
	}
	if network.Passphrase == "" {
		return nil, fmt.Errorf("%w: network passphrase is empty", ErrInvalidManagerConfig)
	}
	manager := &Manager{
		agent:    agent,
		accounts: accounts,
		network:  network,
		session:  Session{Network: network.Name},
	}
	for _, option := range options {
		if option != nil {
			option(manager)
		}
	}
	return manager, nil
}

// Session returns a copy of the current session state.
func (manager *Manager) Session() Session {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.session.clone()
}

// Network returns the network the application expects.
func (manager *Manager) Network() stellar.Network {
	return manager.network
}

// Connect asks the agent for access, records the public key and refreshes the
// balance. A failed balance refresh does not fail the connection; it is
// reported through the session's LastError.
func (manager *Manager) Connect(ctx context.Context) error {
	manager.mu.Lock()
	manager.session.Connecting = true
	manager.clearErrorLocked()
	manager.mu.Unlock()

	publicKey, warning, err := manager.negotiate(ctx)

	manager.mu.Lock()
	manager.session.Connecting = false
	if err != nil {
		manager.session.PublicKey = ""
		manager.session.Connected = false
		manager.session.Balance = nil
		manager.session.NetworkWarning = ""
		manager.setErrorLocked(err)
		manager.mu.Unlock()
		manager.logEvent(ctx, SessionEvent{Event: EventConnect, Error: err})
		return err
	}
	manager.session.PublicKey = publicKey
	manager.session.Connected = true
	manager.session.NetworkWarning = warning
	manager.mu.Unlock()

	if warning != "" {
		manager.logEvent(ctx, SessionEvent{Event: EventNetworkWarning, PublicKey: publicKey, Message: warning})
	}
	manager.logEvent(ctx, SessionEvent{Event: EventConnect, PublicKey: publicKey})

	_ = manager.RefreshBalance(ctx)
	return nil
}

// Disconnect clears the local session. The agent has no disconnect primitive,
// so access granted to the application stays granted in the agent.
func (manager *Manager) Disconnect(ctx context.Context) {
	manager.mu.Lock()
	publicKey := manager.session.PublicKey
	manager.session = Session{Network: manager.network.Name}
	manager.mu.Unlock()
	manager.logEvent(ctx, SessionEvent{Event: EventDisconnect, PublicKey: publicKey})
}

// RefreshBalance reloads the native balance of the connected account. An
// account the ledger does not know yet has a balance of zero. Other failures
// keep the previous balance and set LastError.
func (manager *Manager) RefreshBalance(ctx context.Context) error {
	manager.mu.Lock()
	publicKey := manager.session.PublicKey
	if publicKey == "" {
		manager.mu.Unlock()
		return stellar.NewError(stellar.CodeWalletNotConnected, "Cannot fetch balance: no public key available", nil)
	}
	manager.session.Loading = true
	manager.mu.Unlock()

	account, err := manager.accounts.LoadAccount(ctx, publicKey)

	manager.mu.Lock()
	manager.session.Loading = false
	if manager.session.PublicKey != publicKey {
		manager.mu.Unlock()
		return nil
	}
	if err != nil && !stellar.IsNotFound(err) {
		failure := balanceFailure(err)
		manager.setErrorLocked(failure)
		manager.mu.Unlock()
		manager.logEvent(ctx, SessionEvent{Event: EventBalance, PublicKey: publicKey, Error: failure})
		return failure
	}
	balance := account.NativeBalance()
	manager.session.Balance = &balance
	manager.clearErrorLocked()
	manager.mu.Unlock()
	manager.logEvent(ctx, SessionEvent{Event: EventBalance, PublicKey: publicKey, Message: balance.String()})
	return nil
}

// ClearError resets LastError without touching the connection.
func (manager *Manager) ClearError() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.clearErrorLocked()
}

// PublicKey returns the connected account, or an error when disconnected.
func (manager *Manager) PublicKey() (string, error) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if !manager.session.Connected || manager.session.PublicKey == "" {
		return "", stellar.NewError(stellar.CodeWalletNotConnected, "Please connect your wallet first", nil)
	}
	return manager.session.PublicKey, nil
}

func (manager *Manager) negotiate(ctx context.Context) (string, string, error) {
	if manager.agent == nil || !manager.agent.Installed(ctx) {
		return "", "", stellar.NewError(
			stellar.CodeNotInstalled,
			"Signing agent not installed. Install the Freighter browser extension from "+InstallURL,
			ErrAgentNotInstalled,
		)
	}
	publicKey, err := manager.agent.RequestAccess(ctx)
	if err != nil {
		if IsRejection(err) {
			return "", "", stellar.NewError(stellar.CodeUserCancelled, "Wallet access was rejected", err)
		}
		return "", "", stellar.NewError(stellar.CodeConnectFailed, "Failed to connect wallet", err)
	}
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		address, addressErr := manager.agent.Address(ctx)
		if addressErr != nil {
			return "", "", stellar.NewError(stellar.CodeNoPublicKey, "Failed to retrieve public key from wallet.", addressErr)
		}
		publicKey = strings.TrimSpace(address)
	}
	if !stellar.IsValidAccountAddress(publicKey) {
		return "", "", stellar.NewError(stellar.CodeNoPublicKey, "Failed to retrieve public key from wallet.", nil)
	}

	warning := manager.checkNetwork(ctx)
	if warning != "" && manager.strictNetwork {
		return "", "", stellar.NewError(stellar.CodeNetworkMismatch, warning, nil)
	}
	return publicKey, warning, nil
}

func (manager *Manager) checkNetwork(ctx context.Context) string {
	details, err := manager.agent.NetworkDetails(ctx)
	if err != nil {
		name, nameErr := manager.agent.Network(ctx)
		if nameErr != nil {
			return fmt.Sprintf("Could not verify wallet network: %v", err)
		}
		details = NetworkDetails{Network: name}
	}
	if manager.network.Matches(details.Network, details.NetworkPassphrase) {
		return ""
	}
	reported := details.Network
	if reported == "" {
		reported = details.NetworkPassphrase
	}
	return fmt.Sprintf("Wallet is on %s but the application expects %s", reported, manager.network.Name)
}

func (manager *Manager) setErrorLocked(err error) {
	manager.session.LastError = err.Error()
	manager.session.LastErrorCode = stellar.CodeOf(err)
	var failure *stellar.Error
	if errors.As(err, &failure) {
		manager.session.LastError = failure.Message()
	}
}

func (manager *Manager) clearErrorLocked() {
	manager.session.LastError = ""
	manager.session.LastErrorCode = ""
}

func balanceFailure(err error) error {
	code := stellar.CodeUnknown
	var horizonError *stellar.HorizonError
	if errors.As(err, &horizonError) && horizonError.StatusCode == http.StatusGatewayTimeout {
		code = stellar.CodeTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		code = stellar.CodeTimeout
	}
	return stellar.NewError(code, "Failed to fetch balance: "+err.Error(), err)
}
