package wallet

import "context"

// Session event names.
const (
	EventConnect        = "connect"
	EventDisconnect     = "disconnect"
	EventBalance        = "balance"
	EventNetworkWarning = "network_warning"
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// EventLogger receives session lifecycle events.
type EventLogger interface {
	LogSessionEvent(ctx context.Context, event SessionEvent)
}

// SessionEvent describes one session state change.
type SessionEvent struct {
	Event     string
	PublicKey string
	Message   string
	Error     error
}

// WithEventLogger wires a logger that receives every session event.
func WithEventLogger(logger EventLogger) ManagerOption {
	return func(manager *Manager) {
		manager.logger = logger
	}
}

// WithStrictNetwork turns an agent network mismatch into a connect failure
// instead of a warning.
func WithStrictNetwork() ManagerOption {
	return func(manager *Manager) {
		manager.strictNetwork = true
	}
}

func (manager *Manager) logEvent(ctx context.Context, event SessionEvent) {
	if manager.logger == nil {
		return
	}
	manager.logger.LogSessionEvent(ctx, event)
}
