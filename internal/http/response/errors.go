package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/trainer-bookings/internal/service"
	"github.com/diagnosis/trainer-bookings/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	ID      int64  `json:"id,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeEmailExists   = "EMAIL_EXISTS"
	CodeEmailFailed   = "EMAIL_FAILED"
)

// WriteJSON writes v as the JSON body with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// FromError maps a workflow error onto its HTTP status. Storage details are
// logged, never sent to the client.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(w, verr.Error())
	case errors.Is(err, service.ErrValidation):
		BadRequest(w, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		Unauthorized(w, "Invalid credentials")
	case errors.Is(err, service.ErrConflict):
		WriteError(w, http.StatusBadRequest, "Email already in use.", CodeEmailExists)
	case errors.Is(err, service.ErrNotFoundOrForbidden):
		NotFound(w, "Booking not found")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		InternalError(w, "Internal server error")
	}
}

// NotificationFailed reports a booking that was saved but whose emails failed.
func NotificationFailed(w http.ResponseWriter, id int64) {
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "Booking saved, but email failed to send",
		Code:  CodeEmailFailed,
		ID:    id,
	})
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
