package ledger

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the escrow ledger.
var (
	ErrUnknownEscrow       = errors.New("unknown escrow")
	ErrEscrowExists        = errors.New("escrow already exists")
	ErrInvalidEscrowID     = errors.New("invalid escrow id")
	ErrInvalidTitle        = errors.New("invalid title")
	ErrInvalidParticipant  = errors.New("invalid participant")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidDeadline     = errors.New("invalid deadline")
	ErrInvalidHash         = errors.New("invalid transaction hash")
	ErrInvalidLedgerConfig = errors.New("invalid ledger config")
	ErrCorruptState        = errors.New("corrupt persisted state")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
