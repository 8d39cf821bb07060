package httpapi

import (
	"errors"
	"net/http"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	codeInvalidPayload = "invalid_payload"
	codeNotFound       = "not_found"
	codeNotAuthorized  = "not_authorized"
	codeInvalidState   = "invalid_transition"
	codeInvalidEscrow  = "invalid_escrow"
	codeStorageError   = "storage_error"
)

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// statusForCode maps a coded failure to an HTTP status by its kind.
func statusForCode(code stellar.ErrorCode) int {
	switch code {
	case stellar.CodeNotInstalled:
		return http.StatusFailedDependency
	case stellar.CodeTimeout:
		return http.StatusGatewayTimeout
	}
	switch code.Kind() {
	case stellar.KindInput:
		return http.StatusBadRequest
	case stellar.KindAgent:
		return http.StatusConflict
	case stellar.KindTransport:
		return http.StatusBadGateway
	case stellar.KindPlaceholder:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as the JSON error envelope.
func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	var failure *stellar.Error
	if errors.As(err, &failure) {
		body := errorResponse(string(failure.Code()), failure.Message())
		if failure.Code() == stellar.CodeNotInstalled {
			body["install_url"] = wallet.InstallURL
		}
		ctx.JSON(statusForCode(failure.Code()), body)
		return
	}
	switch {
	case errors.Is(err, ledger.ErrUnknownEscrow):
		ctx.JSON(http.StatusNotFound, errorResponse(codeNotFound, "Escrow not found"))
	case errors.Is(err, ledger.ErrNotAuthorized):
		ctx.JSON(http.StatusForbidden, errorResponse(codeNotAuthorized, err.Error()))
	case errors.Is(err, ledger.ErrInvalidTransition):
		ctx.JSON(http.StatusConflict, errorResponse(codeInvalidState, err.Error()))
	case errors.Is(err, ledger.ErrEscrowExists):
		ctx.JSON(http.StatusConflict, errorResponse(codeInvalidEscrow, err.Error()))
	case errors.Is(err, ledger.ErrInvalidEscrowID),
		errors.Is(err, ledger.ErrInvalidTitle),
		errors.Is(err, ledger.ErrInvalidParticipant),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidCurrency),
		errors.Is(err, ledger.ErrInvalidStatus),
		errors.Is(err, ledger.ErrInvalidDeadline),
		errors.Is(err, ledger.ErrInvalidHash):
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidEscrow, err.Error()))
	default:
		handler.logger.Error("request failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse(codeStorageError, "operation failed"))
	}
}
