package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"interntrack/internal/progress"
)

type ProgressHandler struct {
	progress *progress.Service
	log      *zap.Logger
}

func NewProgressHandler(p *progress.Service, log *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progress: p, log: log}
}

func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.progress.Snapshot(r.Context(), currentUser(r))
	if err != nil {
		h.log.Error("progress snapshot failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "failed to fetch progress")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
