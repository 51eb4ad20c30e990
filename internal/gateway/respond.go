package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quirelab/quire/internal/server"
	"github.com/quirelab/quire/pkg/model"
)

// APIError represents a structured error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes shared by all HTTP surfaces.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeMalformedCursor     = "MALFORMED_CURSOR"
	ErrCodePageSizeOutOfRange  = "PAGE_SIZE_OUT_OF_RANGE"
	ErrCodeUnsupportedOperator = "UNSUPPORTED_OPERATOR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// WriteError writes a structured JSON error response.
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// WriteJSON writes a JSON response with proper error handling.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// ErrorCode classifies an engine error into its wire code, shared by
// the HTTP surfaces and the NATS responder. Unrecognized errors
// classify as internal.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrMalformedCursor):
		return ErrCodeMalformedCursor
	case errors.Is(err, model.ErrPageSizeOutOfRange):
		return ErrCodePageSizeOutOfRange
	case errors.Is(err, model.ErrUnsupportedOperator):
		return ErrCodeUnsupportedOperator
	case errors.Is(err, model.ErrValidation):
		return ErrCodeBadRequest
	case errors.Is(err, model.ErrNotFound):
		return ErrCodeNotFound
	default:
		return ErrCodeInternalError
	}
}

// WriteEngineError maps engine errors onto HTTP responses, the single
// place the code-to-status translation lives. Cancellation comes first
// so an aborted client never shows up as a server fault.
func WriteEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if model.IsCanceled(err) {
		w.WriteHeader(499) // Client Closed Request
		return
	}

	switch code := ErrorCode(err); code {
	case ErrCodeInternalError:
		slog.Error("Request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", server.GetRequestID(r.Context()),
		)
		WriteError(w, http.StatusInternalServerError, code, "Internal error")
	case ErrCodeNotFound:
		WriteError(w, http.StatusNotFound, code, err.Error())
	default:
		WriteError(w, http.StatusBadRequest, code, err.Error())
	}
}
