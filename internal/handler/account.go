package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"LedgerApi/internal/model"
	"LedgerApi/internal/service"
)

type AccountHandler struct {
	service service.LedgerService
}

func NewAccountHandler(service service.LedgerService) *AccountHandler {
	return &AccountHandler{service: service}
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.service.CreateAccount(r.Context())
	if err != nil {
		sendErrorResponse(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	sendSuccessResponse(w, http.StatusCreated, map[string]string{"accountId": accountID})
}

func (h *AccountHandler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	balance, err := h.service.GetBalance(r.Context(), accountID)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendSuccessResponse(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (h *AccountHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	h.handleTransaction(w, r, h.service.Deposit)
}

func (h *AccountHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleTransaction(w, r, h.service.Withdraw)
}

func (h *AccountHandler) handleTransaction(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, accountID string, amount int64) (model.Receipt, error),
) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if req.Amount <= 0 {
		sendErrorResponse(w, "Amount must be positive", http.StatusBadRequest)
		return
	}

	receipt, err := op(r.Context(), accountID, req.Amount)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendSuccessResponse(w, http.StatusCreated, receipt)
}

func (h *AccountHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	txs, err := h.service.ListTransactions(r.Context(), accountID)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}

	sendSuccessResponse(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

func accountIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID := r.PathValue("id")
	if _, err := uuid.Parse(accountID); err != nil {
		sendErrorResponse(w, "Invalid account ID format", http.StatusBadRequest)
		return "", false
	}
	return accountID, true
}

func sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidAmount):
		sendErrorResponse(w, "Invalid amount", http.StatusBadRequest)
	case errors.Is(err, model.ErrAccountNotFound):
		sendErrorResponse(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, model.ErrInsufficientFunds):
		sendErrorResponse(w, "Insufficient funds", http.StatusConflict)
	case errors.Is(err, model.ErrBusy):
		sendErrorResponse(w, "Account is busy, try again", http.StatusTooManyRequests)
	default:
		sendErrorResponse(w, "Operation failed", http.StatusInternalServerError)
	}
}

func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    statusCode,
			"message": message,
		},
	})
}

func sendSuccessResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": data,
	})
}
