package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dvloznov/bankbuddy/internal/api/middleware"
	"github.com/dvloznov/bankbuddy/internal/domain"
	"github.com/dvloznov/bankbuddy/internal/logger"
	"github.com/dvloznov/bankbuddy/internal/pipeline"
)

// StatementsHandler handles statement ingestion endpoints. The statement
// text is expected to be already extracted from the document by the upload
// collaborator; this service takes it from there.
type StatementsHandler struct {
	ingestor *pipeline.Ingestor
	store    domain.Store
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(ingestor *pipeline.Ingestor, store domain.Store) *StatementsHandler {
	return &StatementsHandler{ingestor: ingestor, store: store}
}

// Ingest handles POST /api/statements
func (h *StatementsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID     int64  `json:"account_id"`
		StatementText string `json:"statement_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountID == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Account ID is required")
		return
	}
	if req.StatementText == "" {
		middleware.WriteError(w, http.StatusBadRequest, "statement_text is required")
		return
	}

	h.ingest(w, r, req.AccountID, req.StatementText)
}

// IngestByName handles POST /api/statements/by-name, addressing the account
// by (name, last_4_digits) instead of id.
func (h *StatementsHandler) IngestByName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		Last4Digits   string `json:"last_4_digits"`
		StatementText string `json:"statement_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Last4Digits == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Missing name or last_4_digits")
		return
	}
	if req.StatementText == "" {
		middleware.WriteError(w, http.StatusBadRequest, "statement_text is required")
		return
	}

	account, err := h.store.Accounts().GetByNameAndLast4(r.Context(), req.Name, req.Last4Digits)
	if err != nil {
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	h.ingest(w, r, account.ID, req.StatementText)
}

func (h *StatementsHandler) ingest(w http.ResponseWriter, r *http.Request, accountID int64, text string) {
	created, err := h.ingestor.Ingest(r.Context(), accountID, text)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Int64("account_id", accountID).Msg("Statement ingestion failed")
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Statement ingested successfully",
		"created": created,
	})
}
