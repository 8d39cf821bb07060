package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
)

// ContractClient is the on-chain escrow contract. Implementations that are not
// deployed fail every call with stellar.CodeContractNotDeployed.
type ContractClient interface {
	Fund(ctx context.Context, escrowID string, caller string) error
	Release(ctx context.Context, escrowID string, caller string) error
	Refund(ctx context.Context, escrowID string, caller string) error
	RequestRevision(ctx context.Context, escrowID string, caller string, note string) error
	RaiseDispute(ctx context.Context, escrowID string, caller string) error
}

// ActionResult is the outcome of a simulator action. Simulated is true when
// the contract was unavailable and only the local record changed.
type ActionResult struct {
	Record    Record
	Simulated bool
	Note      string
}

// Simulator applies the role checks a UI performs before acting on an escrow,
// asks the contract first and falls back to a local status change.
type Simulator struct {
	ledger   Ledger
	contract ContractClient
	logger   OperationLogger
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSimulatorLogger wires a logger for simulator actions.
func WithSimulatorLogger(logger OperationLogger) SimulatorOption {
	return func(simulator *Simulator) {
		simulator.logger = logger
	}
}

// NewSimulator wires a Simulator. A nil contract means every action is simulated.
func NewSimulator(ledger Ledger, contract ContractClient, options ...SimulatorOption) (*Simulator, error) {
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger dependency is nil", ErrInvalidLedgerConfig)
	}
	simulator := &Simulator{ledger: ledger, contract: contract}
	for _, option := range options {
		if option != nil {
			option(simulator)
		}
	}
	return simulator, nil
}

type actionRule struct {
	operation  string
	clientOnly bool
	from       Status
	to         Status
	call       func(ctx context.Context, contract ContractClient, escrowID string, caller string) error
}

var (
	fundRule = actionRule{
		operation: operationFund, clientOnly: true, from: StatusCreated, to: StatusFunded,
		call: func(ctx context.Context, contract ContractClient, escrowID string, caller string) error {
			return contract.Fund(ctx, escrowID, caller)
		},
	}
	releaseRule = actionRule{
		operation: operationRelease, clientOnly: true, from: StatusFunded, to: StatusReleased,
		call: func(ctx context.Context, contract ContractClient, escrowID string, caller string) error {
			return contract.Release(ctx, escrowID, caller)
		},
	}
	refundRule = actionRule{
		operation: operationRefund, clientOnly: true, from: StatusFunded, to: StatusRefunded,
		call: func(ctx context.Context, contract ContractClient, escrowID string, caller string) error {
			return contract.Refund(ctx, escrowID, caller)
		},
	}
	disputeRule = actionRule{
		operation: operationDispute, from: StatusFunded, to: StatusDisputed,
		call: func(ctx context.Context, contract ContractClient, escrowID string, caller string) error {
			return contract.RaiseDispute(ctx, escrowID, caller)
		},
	}
)

// Fund moves a created escrow to funded. Only the client may fund.
func (simulator *Simulator) Fund(ctx context.Context, escrowID string, actor string) (ActionResult, error) {
	return simulator.apply(ctx, fundRule, escrowID, actor)
}

// Release pays a funded escrow out to the freelancer. Only the client may release.
func (simulator *Simulator) Release(ctx context.Context, escrowID string, actor string) (ActionResult, error) {
	return simulator.apply(ctx, releaseRule, escrowID, actor)
}

// Refund returns a funded escrow to the client. Only the client may refund.
func (simulator *Simulator) Refund(ctx context.Context, escrowID string, actor string) (ActionResult, error) {
	return simulator.apply(ctx, refundRule, escrowID, actor)
}

// Dispute flags a funded escrow. Either participant may dispute.
func (simulator *Simulator) Dispute(ctx context.Context, escrowID string, actor string) (ActionResult, error) {
	return simulator.apply(ctx, disputeRule, escrowID, actor)
}

// RequestRevision asks the freelancer for changes on a funded escrow. The
// status does not change. Only the client may request a revision.
func (simulator *Simulator) RequestRevision(ctx context.Context, escrowID string, actor string, note string) (ActionResult, error) {
	note = stellar.Sanitize(note)
	rule := actionRule{
		operation: operationRevision, clientOnly: true, from: StatusFunded, to: StatusFunded,
		call: func(ctx context.Context, contract ContractClient, escrowID string, caller string) error {
			return contract.RequestRevision(ctx, escrowID, caller, note)
		},
	}
	result, err := simulator.apply(ctx, rule, escrowID, actor)
	result.Note = note
	return result, err
}

func (simulator *Simulator) apply(ctx context.Context, rule actionRule, escrowID string, actor string) (ActionResult, error) {
	result, err := simulator.run(ctx, rule, escrowID, actor)
	if simulator.logger != nil {
		entry := OperationLog{
			Operation:    rule.operation,
			EscrowID:     escrowID,
			Actor:        actor,
			EscrowStatus: result.Record.Status,
			Simulated:    result.Simulated,
			Status:       operationStatusOK,
			Error:        err,
		}
		if err != nil {
			entry.Status = operationStatusError
		}
		simulator.logger.LogOperation(ctx, entry)
	}
	return result, err
}

func (simulator *Simulator) run(ctx context.Context, rule actionRule, escrowID string, actor string) (ActionResult, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ActionResult{}, stellar.NewError(stellar.CodeWalletNotConnected, "Please connect your wallet first", nil)
	}
	record, ok := simulator.ledger.ByID(escrowID)
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrUnknownEscrow, escrowID)
	}
	if rule.clientOnly && record.Client != actor {
		return ActionResult{Record: record}, fmt.Errorf("%w: only the client can %s the escrow", ErrNotAuthorized, strings.ReplaceAll(rule.operation, "_", " "))
	}
	if !record.IsParticipant(actor) {
		return ActionResult{Record: record}, fmt.Errorf("%w: only a participant can %s the escrow", ErrNotAuthorized, rule.operation)
	}
	if record.Status != rule.from {
		return ActionResult{Record: record}, fmt.Errorf("%w: escrow is %s, expected %s", ErrInvalidTransition, record.Status, rule.from)
	}

	simulated := true
	if simulator.contract != nil {
		err := rule.call(ctx, simulator.contract, escrowID, actor)
		switch {
		case err == nil:
			simulated = false
		case stellar.CodeOf(err) == stellar.CodeContractNotDeployed:
		default:
			return ActionResult{Record: record}, err
		}
	}

	if rule.to == record.Status {
		return ActionResult{Record: record, Simulated: simulated}, nil
	}
	updated, err := simulator.ledger.UpdateStatus(ctx, escrowID, rule.to)
	if err != nil {
		return ActionResult{Record: record}, err
	}
	return ActionResult{Record: updated, Simulated: simulated}, nil
}
