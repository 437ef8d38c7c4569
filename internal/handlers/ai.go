package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"interntrack/internal/services"
)

type AIHandler struct {
	journals *services.JournalService
	log      *zap.Logger
}

func NewAIHandler(journals *services.JournalService, log *zap.Logger) *AIHandler {
	return &AIHandler{journals: journals, log: log}
}

// Refine godoc
// @Summary Refine journal wording
// @Description Polishes grammar and clarity of a draft entry and stores the result
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.RefineResult
// @Failure 403 {object} errorBody "Entry is finished"
// @Failure 504 {object} errorBody "AI timed out"
// @Router /ai/refine [post]
func (h *AIHandler) Refine(w http.ResponseWriter, r *http.Request) {
	var in services.AIInput
	if !decodeJSON(w, r, &in) {
		return
	}
	out, err := h.journals.Refine(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Structure godoc
// @Summary Structure a journal entry as ARAS
// @Description Splits a draft entry into Action, Reflection, Analysis and Summary sections
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.StructureResult
// @Failure 403 {object} errorBody "Entry is finished"
// @Failure 504 {object} errorBody "AI timed out"
// @Router /ai/aras [post]
func (h *AIHandler) Structure(w http.ResponseWriter, r *http.Request) {
	var in services.AIInput
	if !decodeJSON(w, r, &in) {
		return
	}
	out, err := h.journals.Structure(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
