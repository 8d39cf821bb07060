package payment

import (
	"context"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
)

const (
	submissionStatusOK    = "ok"
	submissionStatusError = "error"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// SubmissionLogger records the outcome of every submission attempt.
type SubmissionLogger interface {
	LogSubmission(ctx context.Context, entry SubmissionLog)
}

// SubmissionLog describes one finished submission attempt.
type SubmissionLog struct {
	Source          string
	Destination     string
	Amount          string
	Memo            string
	Stage           Stage
	TransactionHash string
	Ledger          int32
	Code            stellar.ErrorCode
	Status          string
	Error           error
}

// WithSubmissionLogger wires a logger that receives every finished attempt.
func WithSubmissionLogger(logger SubmissionLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithStageObserver wires a callback invoked on every stage transition, in order.
func WithStageObserver(observer func(ctx context.Context, stage Stage)) ServiceOption {
	return func(service *Service) {
		service.observer = observer
	}
}

// WithBaseFee overrides the per-operation fee in stroops.
func WithBaseFee(fee int64) ServiceOption {
	return func(service *Service) {
		if fee > 0 {
			service.baseFee = fee
		}
	}
}

func (service *Service) logSubmission(ctx context.Context, request Request, result Result) {
	if service.logger == nil {
		return
	}
	entry := SubmissionLog{
		Source:          request.Source,
		Destination:     request.Destination,
		Amount:          request.Amount,
		Memo:            request.Memo,
		Stage:           result.Stage,
		TransactionHash: result.TransactionHash,
		Ledger:          result.Ledger,
		Code:            result.ErrorCode,
		Status:          submissionStatusOK,
	}
	if err := result.Err(); err != nil {
		entry.Stage = result.FailedAt
		entry.Status = submissionStatusError
		entry.Error = err
	}
	service.logger.LogSubmission(ctx, entry)
}

func (service *Service) enterStage(ctx context.Context, stage Stage) {
	if service.observer != nil {
		service.observer(ctx, stage)
	}
}
