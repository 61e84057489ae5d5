package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dvloznov/bankbuddy/internal/api/middleware"
	"github.com/dvloznov/bankbuddy/internal/domain"
	"github.com/dvloznov/bankbuddy/internal/logger"
)

// AccountsHandler handles account CRUD endpoints.
type AccountsHandler struct {
	store domain.Store
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(store domain.Store) *AccountsHandler {
	return &AccountsHandler{store: store}
}

type accountResponse struct {
	AccountID         int64  `json:"account_id"`
	Name              string `json:"name"`
	Institution       string `json:"institution"`
	Last4Digits       string `json:"last_4_digits"`
	Type              string `json:"type"`
	Balance           string `json:"balance"`
	LastStatementDate string `json:"last_statement_date"`
	CreatedDate       string `json:"created_date"`
	LastModifiedDate  string `json:"last_modified_date"`
}

// Create handles POST /api/accounts
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountName string `json:"account_name"`
		Institution string `json:"institution"`
		AccountType string `json:"account_type"`
		Last4Digits string `json:"last_4_digits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountName == "" || req.AccountType == "" || req.Last4Digits == "" {
		middleware.WriteError(w, http.StatusBadRequest, "account_name, account_type and last_4_digits are required")
		return
	}
	if !domain.ValidAccountType(req.AccountType) {
		middleware.WriteError(w, http.StatusBadRequest, "account_type must be checking/savings or credit/debit")
		return
	}

	account := &domain.Account{
		Name:        strings.TrimSpace(req.AccountName),
		Institution: strings.TrimSpace(req.Institution),
		Last4Digits: req.Last4Digits,
		Type:        domain.AccountType(req.AccountType),
	}
	id, err := h.store.Accounts().Create(r.Context(), account)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to create account")
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Account created successfully",
		"account_id": id,
	})
}

// List handles GET /api/accounts
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.store.Accounts().List(ctx)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp := accountResponse{
			AccountID:         a.ID,
			Name:              a.Name,
			Institution:       a.Institution,
			Last4Digits:       a.Last4Digits,
			Type:              string(a.Type),
			Balance:           "NA",
			LastStatementDate: "NA",
			CreatedDate:       a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			LastModifiedDate:  a.LastModifiedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		recent, err := h.store.Balances().MostRecent(ctx, a.ID)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Int64("account_id", a.ID).Msg("Failed to load recent balance")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
			return
		}
		if recent != nil {
			resp.Balance = strconv.FormatFloat(recent.Balance, 'f', -1, 64)
		}
		if a.LastStatementDate != nil {
			resp.LastStatementDate = a.LastStatementDate.String()
		}
		out = append(out, resp)
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}

// Edit handles PUT /api/accounts/{id}. Absent fields keep their current
// values.
func (h *AccountsHandler) Edit(w http.ResponseWriter, r *http.Request, accountID int64) {
	var req struct {
		AccountName *string `json:"account_name"`
		Institution *string `json:"institution"`
		Type        *string `json:"type"`
		Last4Digits *string `json:"last_4_digits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	account, err := h.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	if req.AccountName != nil {
		account.Name = strings.TrimSpace(*req.AccountName)
	}
	if req.Institution != nil {
		account.Institution = strings.TrimSpace(*req.Institution)
	}
	if req.Type != nil {
		if !domain.ValidAccountType(*req.Type) {
			middleware.WriteError(w, http.StatusBadRequest, "type must be checking/savings or credit/debit")
			return
		}
		account.Type = domain.AccountType(*req.Type)
	}
	if req.Last4Digits != nil {
		account.Last4Digits = *req.Last4Digits
	}

	if err := h.store.Accounts().Update(ctx, account); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to update account")
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account updated successfully"})
}

// Delete handles DELETE /api/accounts/{id}. The account's transactions and
// balance snapshots are removed in the same transaction.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request, accountID int64) {
	err := h.store.WithinTx(r.Context(), func(tx domain.Store) error {
		if err := tx.Transactions().DeleteByAccount(r.Context(), accountID); err != nil {
			return err
		}
		if err := tx.Balances().DeleteByAccount(r.Context(), accountID); err != nil {
			return err
		}
		return tx.Accounts().Delete(r.Context(), accountID)
	})
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to delete account")
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}
