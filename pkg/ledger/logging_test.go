package ledger

import (
	"context"
	"testing"
)

type recorderLogger struct {
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.entries = append(logger.entries, entry)
}

func TestLedgerLogsAddOperation(test *testing.T) {
	test.Parallel()
	logger := &recorderLogger{}
	ledger := mustLedger(test, NewMemoryStorage(), WithOperationLogger(logger))
	record := mustRecord(test, "escrow-1", clientAddress, freelancerAddress)
	if err := ledger.Add(context.Background(), record); err != nil {
		test.Fatalf("add failed: %v", err)
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Operation != operationAdd || entry.EscrowID != record.ID || entry.Actor != clientAddress || entry.EscrowStatus != StatusCreated {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.Error != nil || entry.Status != operationStatusOK {
		test.Fatalf("expected successful log entry, got %+v", entry)
	}
}

func TestLedgerLogsErrorStatus(test *testing.T) {
	test.Parallel()
	storage := newFailingStorage(test)
	storage.setError = errBoom
	logger := &recorderLogger{}
	ledger := mustLedger(test, storage, WithOperationLogger(logger))
	if err := ledger.Add(context.Background(), mustRecord(test, "escrow-1", clientAddress, freelancerAddress)); err == nil {
		test.Fatalf("expected error")
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	if logger.entries[0].Status != operationStatusError || logger.entries[0].Error == nil {
		test.Fatalf("expected error log entry, got %+v", logger.entries[0])
	}
}

func TestSimulatorLogsSimulatedAction(test *testing.T) {
	test.Parallel()
	logger := &recorderLogger{}
	ledger := mustLedger(test, NewMemoryStorage())
	record := mustRecord(test, "escrow-1", clientAddress, freelancerAddress)
	if err := ledger.Add(context.Background(), record); err != nil {
		test.Fatalf("add failed: %v", err)
	}
	simulator, err := NewSimulator(ledger, nil, WithSimulatorLogger(logger))
	if err != nil {
		test.Fatalf("new simulator: %v", err)
	}
	if _, err := simulator.Fund(context.Background(), record.ID, clientAddress); err != nil {
		test.Fatalf("fund: %v", err)
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Operation != operationFund || !entry.Simulated || entry.EscrowStatus != StatusFunded || entry.Status != operationStatusOK {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
}
