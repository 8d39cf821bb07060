package payment

import (
	"context"
	"errors"
	"net/http"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
)

const (
	messageTransactionFailed = "Transaction failed"
	messageTimeout           = "Transaction timed out. Check the transaction status before retrying."
	messageCancelled         = "Transaction was cancelled"
)

func classifySequenceError(err error) *stellar.Error {
	if stellar.IsNotFound(err) {
		return stellar.NewError(stellar.CodeAccountNotFound, "Source account not found on the ledger. Fund it before sending.", err)
	}
	return classifySubmitError(err)
}

func classifySigningError(err error) *stellar.Error {
	if wallet.IsRejection(err) {
		return stellar.NewError(stellar.CodeUserCancelled, messageCancelled, err)
	}
	if errors.Is(err, wallet.ErrAgentNotInstalled) {
		return stellar.NewError(stellar.CodeNotInstalled, "Signing agent not installed", err)
	}
	return stellar.NewError(stellar.CodeSigningFailed, "Failed to sign transaction", err)
}

func classifySubmitError(err error) *stellar.Error {
	var coded *stellar.Error
	if errors.As(err, &coded) {
		return coded
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return stellar.NewError(stellar.CodeTimeout, messageTimeout, err)
	}
	var horizonError *stellar.HorizonError
	if errors.As(err, &horizonError) {
		switch horizonError.StatusCode {
		case http.StatusBadRequest:
			message := horizonError.FirstResultCode()
			if message == "" {
				message = messageTransactionFailed
			}
			return stellar.NewError(stellar.CodeOperationFailed, message, err)
		case http.StatusGatewayTimeout:
			return stellar.NewError(stellar.CodeTimeout, messageTimeout, err)
		}
	}
	if wallet.IsRejection(err) {
		return stellar.NewError(stellar.CodeUserCancelled, messageCancelled, err)
	}
	return stellar.NewError(stellar.CodeUnknown, err.Error(), err)
}
