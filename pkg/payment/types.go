package payment

import (
	"context"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
)

// Stage is a step of one submission attempt. Attempts move forward only; a
// failure at any stage ends the attempt in StageFailed.
type Stage string

const (
	StageValidating        Stage = "VALIDATING"
	StageFetchingSequence  Stage = "FETCHING_SEQUENCE"
	StageBuilding          Stage = "BUILDING"
	StageAwaitingSignature Stage = "AWAITING_SIGNATURE"
	StageSubmitting        Stage = "SUBMITTING"
	StageSucceeded         Stage = "SUCCEEDED"
	StageFailed            Stage = "FAILED"
)

// Request describes a native asset transfer.
type Request struct {
	Source      string
	Destination string
	Amount      string
	Memo        string
}

// Result is the outcome of one submission attempt. On failure ErrorCode and
// ErrorMessage are set and FailedAt names the stage that failed.
type Result struct {
	Success         bool
	TransactionHash string
	EnvelopeXDR     string
	Ledger          int32
	ErrorCode       stellar.ErrorCode
	ErrorMessage    string
	Stage           Stage
	FailedAt        Stage

	err *stellar.Error
}

// Err returns the coded failure, or nil on success.
func (result Result) Err() error {
	if result.err == nil {
		return nil
	}
	return result.err
}

// LedgerClient is the part of the ledger API a submission needs.
type LedgerClient interface {
	LoadAccount(ctx context.Context, accountID string) (stellar.Account, error)
	SubmitTransaction(ctx context.Context, envelopeXDR string) (stellar.SubmitResult, error)
}

// Signer signs a base64 transaction envelope for the given network passphrase
// and returns the signed envelope.
type Signer interface {
	SignTransaction(ctx context.Context, envelopeXDR string, networkPassphrase string) (string, error)
}

// TransactionReader reads applied transactions from the ledger.
type TransactionReader interface {
	Transaction(ctx context.Context, hash string) (stellar.TransactionRecord, error)
	AccountTransactions(ctx context.Context, accountID string, limit int) ([]stellar.TransactionRecord, error)
}

// AccountLoader reads account state from the ledger.
type AccountLoader interface {
	LoadAccount(ctx context.Context, accountID string) (stellar.Account, error)
}
