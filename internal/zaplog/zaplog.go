// Package zaplog adapts the domain logger callbacks to zap.
package zaplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/payment"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
	"go.uber.org/zap"
)

// Logger writes payment, ledger and wallet events. Failures go to warn,
// everything else to info.
type Logger struct {
	logger *zap.Logger
}

var (
	_ payment.SubmissionLogger = (*Logger)(nil)
	_ ledger.OperationLogger   = (*Logger)(nil)
	_ wallet.EventLogger       = (*Logger)(nil)
)

// New wraps logger. A nil logger discards everything.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger}
}

// NewBase builds the process logger: production by default, development when asked.
func NewBase(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// LogSubmission records a finished payment attempt.
func (logger *Logger) LogSubmission(_ context.Context, entry payment.SubmissionLog) {
	fields := []zap.Field{
		zap.String("source", entry.Source),
		zap.String("destination", entry.Destination),
		zap.String("amount", entry.Amount),
		zap.String("stage", string(entry.Stage)),
		zap.String("status", entry.Status),
	}
	if entry.Memo != "" {
		fields = append(fields, zap.String("memo", entry.Memo))
	}
	if entry.TransactionHash != "" {
		fields = append(fields, zap.String("transaction_hash", entry.TransactionHash), zap.Int32("ledger", entry.Ledger))
	}
	if entry.Error != nil {
		fields = append(fields, zap.String("code", string(entry.Code)), zap.Error(entry.Error))
		logger.logger.Warn("payment failed", fields...)
		return
	}
	logger.logger.Info("payment submitted", fields...)
}

// LogOperation records an escrow ledger operation.
func (logger *Logger) LogOperation(_ context.Context, entry ledger.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("escrow_id", entry.EscrowID),
		zap.String("status", entry.Status),
	}
	if entry.Actor != "" {
		fields = append(fields, zap.String("actor", entry.Actor))
	}
	if entry.EscrowStatus != "" {
		fields = append(fields, zap.String("escrow_status", string(entry.EscrowStatus)))
	}
	if entry.TransactionHash != "" {
		fields = append(fields, zap.String("transaction_hash", entry.TransactionHash))
	}
	if entry.Simulated {
		fields = append(fields, zap.Bool("simulated", true))
	}
	if entry.Error != nil {
		fields = append(fields, zap.String("code", string(stellar.CodeOf(entry.Error))), zap.Error(entry.Error))
		logger.logger.Warn("escrow operation failed", fields...)
		return
	}
	logger.logger.Info("escrow operation", fields...)
}

// LogSessionEvent records a wallet session change.
func (logger *Logger) LogSessionEvent(_ context.Context, event wallet.SessionEvent) {
	fields := []zap.Field{zap.String("event", event.Event)}
	if event.PublicKey != "" {
		fields = append(fields, zap.String("public_key", event.PublicKey))
	}
	if event.Message != "" {
		fields = append(fields, zap.String("message", event.Message))
	}
	switch {
	case event.Error != nil:
		fields = append(fields, zap.String("code", string(stellar.CodeOf(event.Error))), zap.Error(event.Error))
		logger.logger.Warn("wallet session failed", fields...)
	case event.Event == wallet.EventNetworkWarning:
		logger.logger.Warn("wallet network mismatch", fields...)
	default:
		logger.logger.Info("wallet session", fields...)
	}
}
