package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dvloznov/bankbuddy/internal/api/middleware"
	"github.com/dvloznov/bankbuddy/internal/domain"
	"github.com/dvloznov/bankbuddy/internal/ledger"
	"github.com/dvloznov/bankbuddy/internal/logger"
)

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	store  domain.Store
	merger *ledger.Merger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store domain.Store, merger *ledger.Merger) *TransactionsHandler {
	return &TransactionsHandler{store: store, merger: merger}
}

type transactionResponse struct {
	TransactionID   int64   `json:"transaction_id"`
	TransactionDate string  `json:"transaction_date"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Amount          float64 `json:"amount"`
	Comment         string  `json:"comment"`
	AccountID       int64   `json:"account_id"`
	AccountName     string  `json:"account_name"`
	Institution     string  `json:"account_institution"`
	Last4Digits     string  `json:"last_4_digits"`
	AccountType     string  `json:"account_type"`
}

// List handles GET /api/transactions?fromDate=...&toDate=...
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseRange(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	txs, err := h.store.Transactions().ListInRange(ctx, from, to)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	accounts, err := h.store.Accounts().List(ctx)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	byID := make(map[int64]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		resp := transactionResponse{
			TransactionID:   t.ID,
			TransactionDate: t.Date.String(),
			Description:     t.Description,
			Category:        t.Category,
			Amount:          t.Amount,
			Comment:         t.Comment,
			AccountID:       t.AccountID,
		}
		if a, ok := byID[t.AccountID]; ok {
			resp.AccountName = a.Name
			resp.Institution = a.Institution
			resp.Last4Digits = a.Last4Digits
			resp.AccountType = string(a.Type)
		}
		out = append(out, resp)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": out})
}

// Add handles POST /api/transactions for direct manual entry.
func (h *TransactionsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID       int64   `json:"account_id"`
		TransactionDate string  `json:"transaction_date"`
		Description     string  `json:"description"`
		Category        string  `json:"category"`
		Amount          float64 `json:"amount"`
		Comment         string  `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountID == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	if _, err := h.store.Accounts().GetByID(r.Context(), req.AccountID); err != nil {
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	id, err := ledger.AddManual(r.Context(), h.store, ledger.ManualEntry{
		AccountID:   req.AccountID,
		Date:        req.TransactionDate,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		Comment:     req.Comment,
	})
	if err != nil {
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Transaction added successfully!",
		"transaction_id": id,
	})
}

// UpdateField handles PUT /api/transactions, mutating one named field.
func (h *TransactionsHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TransactionID int64  `json:"transaction_id"`
		Field         string `json:"field"`
		Value         string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TransactionID == 0 || req.Field == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	update, err := ledger.ParseFieldUpdate(req.Field, req.Value)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ledger.UpdateTransactionField(r.Context(), h.store, req.TransactionID, update); err != nil {
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Transaction updated successfully"})
}

// BulkDelete handles DELETE /api/transactions with a list of ids.
func (h *TransactionsHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TransactionIDs []int64 `json:"transaction_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TransactionIDs == nil {
		middleware.WriteError(w, http.StatusBadRequest, "'transaction_ids' is required")
		return
	}

	deleted, notFound, err := ledger.DeleteTransactions(r.Context(), h.store, req.TransactionIDs)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to delete transactions")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(notFound) > 0 {
		middleware.WriteError(w, http.StatusInternalServerError,
			fmt.Sprintf("Deleted %d/%d transactions", len(deleted), len(req.TransactionIDs)))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Deleted transactions:%d from the database", len(deleted)),
	})
}

// RemoveDuplicates handles DELETE /api/transactions/duplicates, the bulk
// cleanup pass over the existing ledger.
func (h *TransactionsHandler) RemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	removed, err := h.merger.DeduplicateLedger(r.Context())
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Dedup pass failed")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Removed %d duplicate transactions.", removed),
	})
}
