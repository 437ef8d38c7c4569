package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"interntrack/internal/services"
)

type JournalHandler struct {
	journals *services.JournalService
	log      *zap.Logger
}

func NewJournalHandler(journals *services.JournalService, log *zap.Logger) *JournalHandler {
	return &JournalHandler{journals: journals, log: log}
}

// List returns the user's entries, optionally limited to ?year=&month=.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.journals.List(r.Context(), currentUser(r), q.Get("year"), q.Get("month"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetByDate returns the entry for {date}, or null when the day is empty.
func (h *JournalHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journals.Get(r.Context(), currentUser(r), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Save creates or updates the draft for a date: 201 when created, 200 when
// updated.
func (h *JournalHandler) Save(w http.ResponseWriter, r *http.Request) {
	var in services.SaveDraftInput
	if !decodeJSON(w, r, &in) {
		return
	}
	entry, created, err := h.journals.SaveDraft(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, createdOrOK(created), entry)
}

func (h *JournalHandler) LogHours(w http.ResponseWriter, r *http.Request) {
	var in services.LogHoursInput
	if !decodeJSON(w, r, &in) {
		return
	}
	entry, created, err := h.journals.LogHours(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, createdOrOK(created), entry)
}

func (h *JournalHandler) FinishDay(w http.ResponseWriter, r *http.Request) {
	var in services.FinishDayInput
	if !decodeJSON(w, r, &in) {
		return
	}
	entry, err := h.journals.FinishDay(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Day finished successfully",
		"entry":   entry,
	})
}

// Export returns the full history as JSON, or as a workbook with ?format=xlsx.
func (h *JournalHandler) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.journals.Export(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if r.URL.Query().Get("format") != "xlsx" {
		writeJSON(w, http.StatusOK, rows)
		return
	}
	filename := "journals_" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := services.WriteXLSX(w, rows); err != nil {
		h.log.Error("xlsx export failed", zap.Error(err))
	}
}
