package ledger

import "context"

// LedgerOption configures a LocalLedger instance.
type LedgerOption func(*LocalLedger)

// OperationLogger records domain-level events emitted by ledger operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing escrow operation.
type OperationLog struct {
	Operation       string
	EscrowID        string
	Actor           string
	EscrowStatus    Status
	TransactionHash string
	Simulated       bool
	Status          string
	Error           error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) LedgerOption {
	return func(ledger *LocalLedger) {
		ledger.logger = logger
	}
}

// WithClock overrides the clock used to stamp new records.
func WithClock(now func() int64) LedgerOption {
	return func(ledger *LocalLedger) {
		if now != nil {
			ledger.nowFn = now
		}
	}
}

func (ledger *LocalLedger) logOperation(ctx context.Context, entry OperationLog) {
	if ledger.logger == nil {
		return
	}
	entry.Status = operationStatusOK
	if entry.Error != nil {
		entry.Status = operationStatusError
	}
	ledger.logger.LogOperation(ctx, entry)
}
