package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"salesengine/internal/core"
	"salesengine/internal/log"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: w.Header().Get(log.RequestIDHeader)})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrDivisionByZero):
		return http.StatusUnprocessableEntity, log.ErrorTypeArithmetic
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrUnknownStatus),
		errors.Is(err, errInvalidParam):
		return http.StatusBadRequest, log.ErrorTypeInput
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	default:
		return http.StatusInternalServerError, log.ErrorTypeInternal
	}
}

// writeFailure logs err under the request logger and writes its mapped status.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, errType := statusFor(err)
	fields := log.NewFields().WithOperation(op).WithError(err).WithErrorType(errType)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		writeError(w, status, "internal error")
		return
	}
	logger.DebugContext(r.Context(), "Request rejected", fields.ToSlice()...)
	writeError(w, status, err.Error())
}
