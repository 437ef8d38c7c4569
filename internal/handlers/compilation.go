package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"interntrack/internal/services"
)

type CompilationHandler struct {
	compiler *services.CompilationService
	log      *zap.Logger
}

func NewCompilationHandler(c *services.CompilationService, log *zap.Logger) *CompilationHandler {
	return &CompilationHandler{compiler: c, log: log}
}

func (h *CompilationHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.compiler.Status(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *CompilationHandler) Compile(w http.ResponseWriter, r *http.Request) {
	report, err := h.compiler.Compile(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Report compiled successfully",
		"report_id":  report.ID,
		"reportData": report.ReportData,
	})
}

func (h *CompilationHandler) Download(w http.ResponseWriter, r *http.Request) {
	doc, err := h.compiler.Download(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Body)
}
