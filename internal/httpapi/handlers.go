package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/payment"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (handler *httpHandler) respondSession(ctx *gin.Context, manager *wallet.Manager) {
	ctx.JSON(http.StatusOK, gin.H{"session": newSessionPayload(manager.Session())})
}

func (handler *httpHandler) handleSession(ctx *gin.Context) {
	handler.respondSession(ctx, sessionManager(ctx))
}

func (handler *httpHandler) handleConnect(ctx *gin.Context) {
	manager := sessionManager(ctx)
	if err := manager.Connect(ctx.Request.Context()); err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.respondSession(ctx, manager)
}

func (handler *httpHandler) handleDisconnect(ctx *gin.Context) {
	manager := sessionManager(ctx)
	manager.Disconnect(ctx.Request.Context())
	handler.respondSession(ctx, manager)
}

func (handler *httpHandler) handleRefreshBalance(ctx *gin.Context) {
	manager := sessionManager(ctx)
	if err := manager.RefreshBalance(ctx.Request.Context()); err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.respondSession(ctx, manager)
}

func (handler *httpHandler) handleClearError(ctx *gin.Context) {
	manager := sessionManager(ctx)
	manager.ClearError()
	handler.respondSession(ctx, manager)
}

func (handler *httpHandler) handlePayment(ctx *gin.Context) {
	manager := sessionManager(ctx)
	source, err := manager.PublicKey()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request paymentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, "expected JSON body"))
		return
	}
	result := handler.payments.Submit(ctx.Request.Context(), payment.Request{
		Source:      source,
		Destination: request.Destination,
		Amount:      request.Amount,
		Memo:        request.Memo,
	})
	payload := newPaymentPayload(result, handler.network)
	if !result.Success {
		body := errorResponse(string(result.ErrorCode), result.ErrorMessage)
		body["payment"] = payload
		if result.ErrorCode == stellar.CodeNotInstalled {
			body["install_url"] = wallet.InstallURL
		}
		ctx.JSON(statusForCode(result.ErrorCode), body)
		return
	}
	if refreshErr := manager.RefreshBalance(ctx.Request.Context()); refreshErr != nil {
		handler.logger.Warn("balance refresh after payment failed", zap.Error(refreshErr))
	}
	ctx.JSON(http.StatusOK, gin.H{"payment": payload, "session": newSessionPayload(manager.Session())})
}

func (handler *httpHandler) handleListEscrows(ctx *gin.Context) {
	publicKey, err := sessionManager(ctx).PublicKey()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"escrows": newEscrowPayloads(handler.escrows.ByParticipant(publicKey))})
}

func (handler *httpHandler) handleCreateEscrow(ctx *gin.Context) {
	publicKey, err := sessionManager(ctx).PublicKey()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request escrowRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, "expected JSON body"))
		return
	}
	record, err := handler.escrows.Create(ctx.Request.Context(), ledger.RecordInput{
		ID:              request.ID,
		Title:           request.Title,
		Client:          publicKey,
		Freelancer:      request.Freelancer,
		Amount:          request.Amount,
		Currency:        request.Currency,
		ContractAddress: request.ContractAddress,
		Deadline:        request.Deadline,
		Metadata:        request.Metadata,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"escrow": newEscrowPayload(record)})
}

func (handler *httpHandler) handleShowEscrow(ctx *gin.Context) {
	record, ok := handler.participantEscrow(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"escrow": newEscrowPayload(record)})
}

func (handler *httpHandler) handleDeleteEscrow(ctx *gin.Context) {
	record, ok := handler.participantEscrow(ctx)
	if !ok {
		return
	}
	if err := handler.escrows.Delete(ctx.Request.Context(), record.ID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleSetTransaction(ctx *gin.Context) {
	record, ok := handler.participantEscrow(ctx)
	if !ok {
		return
	}
	var request transactionHashRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, "expected JSON body"))
		return
	}
	updated, err := handler.escrows.UpdateTransactionHash(ctx.Request.Context(), record.ID, request.TransactionHash)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"escrow": newEscrowPayload(updated)})
}

type escrowAction string

const (
	actionFund     escrowAction = "fund"
	actionRelease  escrowAction = "release"
	actionRefund   escrowAction = "refund"
	actionDispute  escrowAction = "dispute"
	actionRevision escrowAction = "revision"
)

func (handler *httpHandler) handleEscrowAction(action escrowAction) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor, err := sessionManager(ctx).PublicKey()
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		escrowID := ctx.Param("id")
		requestCtx := ctx.Request.Context()
		var result ledger.ActionResult
		switch action {
		case actionFund:
			result, err = handler.simulator.Fund(requestCtx, escrowID, actor)
		case actionRelease:
			result, err = handler.simulator.Release(requestCtx, escrowID, actor)
		case actionRefund:
			result, err = handler.simulator.Refund(requestCtx, escrowID, actor)
		case actionDispute:
			result, err = handler.simulator.Dispute(requestCtx, escrowID, actor)
		case actionRevision:
			var request revisionRequest
			if bindErr := ctx.ShouldBindJSON(&request); bindErr != nil && !errors.Is(bindErr, io.EOF) {
				ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, "expected JSON body"))
				return
			}
			result, err = handler.simulator.RequestRevision(requestCtx, escrowID, actor, request.Note)
		}
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		body := gin.H{"escrow": newEscrowPayload(result.Record), "simulated": result.Simulated}
		if result.Note != "" {
			body["note"] = result.Note
		}
		ctx.JSON(http.StatusOK, body)
	}
}

// participantEscrow loads the escrow named in the path and checks that the
// connected account takes part in it. It writes the error response itself.
func (handler *httpHandler) participantEscrow(ctx *gin.Context) (ledger.Record, bool) {
	publicKey, err := sessionManager(ctx).PublicKey()
	if err != nil {
		handler.respondError(ctx, err)
		return ledger.Record{}, false
	}
	record, found := handler.escrows.ByID(ctx.Param("id"))
	if !found {
		handler.respondError(ctx, ledger.ErrUnknownEscrow)
		return ledger.Record{}, false
	}
	if !record.IsParticipant(publicKey) {
		handler.respondError(ctx, ledger.ErrNotAuthorized)
		return ledger.Record{}, false
	}
	return record, true
}

func (handler *httpHandler) handleTransactionStatus(ctx *gin.Context) {
	record, err := payment.TransactionStatus(ctx.Request.Context(), handler.horizon, strings.TrimSpace(ctx.Param("hash")))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	if record == nil {
		ctx.JSON(http.StatusNotFound, errorResponse(codeNotFound, "Transaction not found"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"transaction": newTransactionPayload(*record, handler.network)})
}

func (handler *httpHandler) handleAccountTransactions(ctx *gin.Context) {
	limit := payment.DefaultHistoryLimit
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	records, err := payment.RecentTransactions(ctx.Request.Context(), handler.horizon, ctx.Param("id"), limit)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]transactionPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, newTransactionPayload(record, handler.network))
	}
	ctx.JSON(http.StatusOK, gin.H{"transactions": payloads})
}

func (handler *httpHandler) handleAccount(ctx *gin.Context) {
	accountID := strings.TrimSpace(ctx.Param("id"))
	if !stellar.IsValidAccountAddress(accountID) {
		handler.respondError(ctx, stellar.NewError(stellar.CodeInvalidAddress, "Invalid account address", nil))
		return
	}
	exists, err := payment.AccountExists(ctx.Request.Context(), handler.horizon, accountID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"account_id": accountID, "exists": exists})
}
