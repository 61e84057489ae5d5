package handlers

import (
	"net/http"

	"github.com/dvloznov/bankbuddy/internal/aggregate"
	"github.com/dvloznov/bankbuddy/internal/api/middleware"
	"github.com/dvloznov/bankbuddy/internal/logger"
)

// SummaryHandler handles the read-only aggregation endpoints.
type SummaryHandler struct {
	engine *aggregate.Engine
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(engine *aggregate.Engine) *SummaryHandler {
	return &SummaryHandler{engine: engine}
}

// Summarize handles GET /api/summary?fromDate=...&toDate=...
func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	summary, err := h.engine.Summarize(r.Context(), from, to)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to compute summary")
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// ByCategory handles GET /api/summary/categories?fromDate=...&toDate=...
func (h *SummaryHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}

	totals, err := h.engine.SummarizeByCategory(r.Context(), from, to)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to compute category summary")
		middleware.WriteError(w, statusFor(err), err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": totals})
}
