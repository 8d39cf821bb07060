package stellar

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the closed set of failure codes surfaced to callers.
type ErrorCode string

const (
	CodeInvalidSourceAddress      ErrorCode = "INVALID_SOURCE_ADDRESS"
	CodeInvalidDestinationAddress ErrorCode = "INVALID_DESTINATION_ADDRESS"
	CodeInvalidAddress            ErrorCode = "INVALID_ADDRESS"
	CodeInvalidAmount             ErrorCode = "INVALID_AMOUNT"
	CodeInvalidMemo               ErrorCode = "INVALID_MEMO"
	CodeInvalidDeadline           ErrorCode = "INVALID_DEADLINE"
	CodeInvalidContractID         ErrorCode = "INVALID_CONTRACT_ID"
	CodeSelfPayment               ErrorCode = "SELF_PAYMENT"

	CodeNotInstalled       ErrorCode = "NOT_INSTALLED"
	CodeNoPublicKey        ErrorCode = "NO_PUBLIC_KEY"
	CodeConnectFailed      ErrorCode = "CONNECT_FAILED"
	CodeWalletNotConnected ErrorCode = "WALLET_NOT_CONNECTED"
	CodeNetworkMismatch    ErrorCode = "NETWORK_MISMATCH"
	CodeSigningFailed      ErrorCode = "SIGNING_FAILED"
	CodeUserCancelled      ErrorCode = "USER_CANCELLED"

	CodeAccountNotFound ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeBuildFailed     ErrorCode = "BUILD_FAILED"
	CodeOperationFailed ErrorCode = "OPERATION_FAILED"
	CodeTimeout         ErrorCode = "TIMEOUT"

	CodeContractNotDeployed ErrorCode = "CONTRACT_NOT_DEPLOYED"

	CodeUnknown ErrorCode = "UNKNOWN_ERROR"
)

// ErrorKind groups codes by where the failure originated.
type ErrorKind string

const (
	KindInput       ErrorKind = "input"
	KindAgent       ErrorKind = "agent"
	KindTransport   ErrorKind = "transport"
	KindPlaceholder ErrorKind = "placeholder"
	KindUnknown     ErrorKind = "unknown"
)

// Kind reports the origin of the code.
func (code ErrorCode) Kind() ErrorKind {
	switch code {
	case CodeInvalidSourceAddress, CodeInvalidDestinationAddress, CodeInvalidAddress,
		CodeInvalidAmount, CodeInvalidMemo, CodeInvalidDeadline, CodeInvalidContractID, CodeSelfPayment:
		return KindInput
	case CodeNotInstalled, CodeNoPublicKey, CodeConnectFailed, CodeWalletNotConnected,
		CodeNetworkMismatch, CodeSigningFailed, CodeUserCancelled:
		return KindAgent
	case CodeAccountNotFound, CodeBuildFailed, CodeOperationFailed, CodeTimeout:
		return KindTransport
	case CodeContractNotDeployed:
		return KindPlaceholder
	default:
		return KindUnknown
	}
}

// String returns the wire form of the code.
func (code ErrorCode) String() string {
	return string(code)
}

// Error is a coded failure. Every failure that leaves the payment, wallet or
// contract layers is an *Error.
type Error struct {
	code    ErrorCode
	message string
	cause   error
}

// NewError builds a coded failure. cause may be nil.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{code: code, message: message, cause: cause}
}

// Error returns the formatted error message.
func (failure *Error) Error() string {
	if failure.cause != nil && failure.cause.Error() != failure.message {
		return fmt.Sprintf("%s: %s: %v", failure.code, failure.message, failure.cause)
	}
	return fmt.Sprintf("%s: %s", failure.code, failure.message)
}

// Unwrap returns the underlying error.
func (failure *Error) Unwrap() error {
	return failure.cause
}

// Code returns the stable error code.
func (failure *Error) Code() ErrorCode {
	return failure.code
}

// Message returns the user-facing message.
func (failure *Error) Message() string {
	return failure.message
}

// Kind returns the origin of the failure.
func (failure *Error) Kind() ErrorKind {
	return failure.code.Kind()
}

// CodeOf extracts the code of a coded failure, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var failure *Error
	if errors.As(err, &failure) {
		return failure.code
	}
	return CodeUnknown
}

// HorizonError is a non-2xx response from the ledger API, decoded from its
// problem document.
type HorizonError struct {
	StatusCode      int
	Title           string
	Detail          string
	TransactionCode string
	OperationCodes  []string
}

// Error returns the formatted error message.
func (horizonError *HorizonError) Error() string {
	message := horizonError.Title
	if message == "" {
		message = http.StatusText(horizonError.StatusCode)
	}
	if horizonError.Detail != "" {
		message = message + ": " + horizonError.Detail
	}
	return fmt.Sprintf("horizon %d: %s", horizonError.StatusCode, message)
}

// FirstResultCode returns the first operation result code, falling back to the
// transaction result code.
func (horizonError *HorizonError) FirstResultCode() string {
	if len(horizonError.OperationCodes) > 0 && horizonError.OperationCodes[0] != "" {
		return horizonError.OperationCodes[0]
	}
	return horizonError.TransactionCode
}

// IsNotFound reports whether err is a ledger 404.
func IsNotFound(err error) bool {
	var horizonError *HorizonError
	if errors.As(err, &horizonError) {
		return horizonError.StatusCode == http.StatusNotFound
	}
	return false
}
