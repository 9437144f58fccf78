package server

import (
	"errors"
	"net/http"

	"github.com/desertthunder/ytlinks/internal/shared"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, `{"status":"error","message":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeRawJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Status: "error", Message: message})
}

// statusFor maps sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrEmptyInput), errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, shared.ErrRefreshNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
