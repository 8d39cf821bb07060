package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
)

const (
	// TransactionTimeoutSeconds is how long a built transaction stays valid.
	// A transaction that expires unsigned must be rebuilt with a fresh sequence.
	TransactionTimeoutSeconds int64 = 180
	// MaxMemoBytes is the ledger's limit for a text memo.
	MaxMemoBytes = 28
)

// ErrInvalidServiceConfig reports a Service wired without its dependencies.
var ErrInvalidServiceConfig = errors.New("invalid payment service config")

// Service builds, signs and submits native asset payments. It never retries:
// every failure ends the attempt.
type Service struct {
	ledger   LedgerClient
	signer   Signer
	network  stellar.Network
	nowFn    func() int64
	baseFee  int64
	logger   SubmissionLogger
	observer func(ctx context.Context, stage Stage)
}

// NewService wires a Service. now returns Unix seconds.
func NewService(ledger LedgerClient, signer Signer, network stellar.Network, now func() int64, options ...ServiceOption) (*Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger client is nil", ErrInvalidServiceConfig)
	}
	if signer == nil {
		return nil, fmt.Errorf("%w: signer is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	if network.Passphrase == "" {
		return nil, fmt.Errorf("%w: network passphrase is empty", ErrInvalidServiceConfig)
	}
	service := &Service{
		ledger:  ledger,
		signer:  signer,
		network: network,
		nowFn:   now,
		baseFee: txnbuild.MinBaseFee,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// Submit runs one attempt through every stage and reports the outcome. Input
// errors are reported before any network call.
func (service *Service) Submit(ctx context.Context, request Request) Result {
	result := service.submit(ctx, request)
	service.logSubmission(ctx, request, result)
	return result
}

func (service *Service) submit(ctx context.Context, request Request) Result {
	service.enterStage(ctx, StageValidating)
	amount, memo, failure := validateRequest(request)
	if failure != nil {
		return service.fail(ctx, StageValidating, failure)
	}

	service.enterStage(ctx, StageFetchingSequence)
	account, err := service.ledger.LoadAccount(ctx, request.Source)
	if err != nil {
		return service.fail(ctx, StageFetchingSequence, classifySequenceError(err))
	}

	service.enterStage(ctx, StageBuilding)
	unsigned, err := service.build(request, account, amount, memo)
	if err != nil {
		return service.fail(ctx, StageBuilding, stellar.NewError(stellar.CodeBuildFailed, "Failed to build transaction", err))
	}

	service.enterStage(ctx, StageAwaitingSignature)
	signed, err := service.signer.SignTransaction(ctx, unsigned, service.network.Passphrase)
	if err != nil {
		return service.fail(ctx, StageAwaitingSignature, classifySigningError(err))
	}
	envelope, err := decodeSigned(signed)
	if err != nil {
		return service.fail(ctx, StageAwaitingSignature, stellar.NewError(stellar.CodeSigningFailed, "Signing agent returned an unreadable transaction", err))
	}

	service.enterStage(ctx, StageSubmitting)
	submitted, err := service.ledger.SubmitTransaction(ctx, envelope)
	if err != nil {
		return service.fail(ctx, StageSubmitting, classifySubmitError(err))
	}

	service.enterStage(ctx, StageSucceeded)
	envelopeXDR := submitted.EnvelopeXDR
	if envelopeXDR == "" {
		envelopeXDR = envelope
	}
	return Result{
		Success:         true,
		TransactionHash: submitted.Hash,
		EnvelopeXDR:     envelopeXDR,
		Ledger:          submitted.Ledger,
		Stage:           StageSucceeded,
	}
}

func (service *Service) fail(ctx context.Context, stage Stage, failure *stellar.Error) Result {
	service.enterStage(ctx, StageFailed)
	return Result{
		ErrorCode:    failure.Code(),
		ErrorMessage: failure.Message(),
		Stage:        StageFailed,
		FailedAt:     stage,
		err:          failure,
	}
}

func (service *Service) build(request Request, account stellar.Account, amount stellar.Amount, memo string) (string, error) {
	params := txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: request.Source, Sequence: account.Sequence},
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: request.Destination,
				Amount:      amount.String(),
				Asset:       txnbuild.NativeAsset{},
			},
		},
		BaseFee: service.baseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimebounds(0, service.nowFn()+TransactionTimeoutSeconds),
		},
	}
	if memo != "" {
		params.Memo = txnbuild.MemoText(memo)
	}
	transaction, err := txnbuild.NewTransaction(params)
	if err != nil {
		return "", err
	}
	return transaction.Base64()
}

func validateRequest(request Request) (stellar.Amount, string, *stellar.Error) {
	if !strkey.IsValidEd25519PublicKey(request.Source) {
		return stellar.Amount{}, "", stellar.NewError(stellar.CodeInvalidSourceAddress, "Invalid source address", nil)
	}
	if !strkey.IsValidEd25519PublicKey(request.Destination) {
		return stellar.Amount{}, "", stellar.NewError(stellar.CodeInvalidDestinationAddress, "Invalid destination address", nil)
	}
	if request.Source == request.Destination {
		return stellar.Amount{}, "", stellar.NewError(stellar.CodeSelfPayment, "Cannot send a payment to the same account", nil)
	}
	amount, err := stellar.ParseAmount(request.Amount)
	if err != nil {
		return stellar.Amount{}, "", stellar.NewError(stellar.CodeInvalidAmount, "Invalid amount", err)
	}
	memo := strings.TrimSpace(request.Memo)
	if len(memo) > MaxMemoBytes {
		return stellar.Amount{}, "", stellar.NewError(stellar.CodeInvalidMemo, fmt.Sprintf("Memo must be at most %d bytes", MaxMemoBytes), nil)
	}
	return amount, memo, nil
}

func decodeSigned(signed string) (string, error) {
	generic, err := txnbuild.TransactionFromXDR(strings.TrimSpace(signed))
	if err != nil {
		return "", err
	}
	if feeBump, ok := generic.FeeBump(); ok {
		if len(feeBump.Signatures()) == 0 {
			return "", errors.New("fee bump envelope carries no signatures")
		}
		return feeBump.Base64()
	}
	transaction, ok := generic.Transaction()
	if !ok {
		return "", errors.New("signed envelope is neither a transaction nor a fee bump")
	}
	if len(transaction.Signatures()) == 0 {
		return "", errors.New("signed envelope carries no signatures")
	}
	return transaction.Base64()
}
