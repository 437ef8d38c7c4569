package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"interntrack/internal/middleware"
	"interntrack/internal/services"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps a service error kind onto an HTTP status.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindAlreadyFinished, services.KindInvalidState, services.KindNoContent:
		return http.StatusBadRequest
	case services.KindConflict, services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case services.KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": ...}. Causes are logged, never sent.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		log.Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	status := statusFor(svcErr.Kind)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Stringer("kind", svcErr.Kind),
			zap.Error(err))
	}
	writeMessage(w, status, svcErr.Message)
}

// decodeJSON reads a bounded JSON body into v. It writes the error response
// itself and reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		writeMessage(w, http.StatusBadRequest, "request body is empty")
	default:
		writeMessage(w, http.StatusBadRequest, "invalid body")
	}
	return false
}

// currentUser returns the authenticated user. Routes using it sit behind
// RequireAuth, so a missing ID is a wiring bug.
func currentUser(r *http.Request) uuid.UUID {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		panic("handlers: route is missing RequireAuth")
	}
	return id
}

func createdOrOK(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
