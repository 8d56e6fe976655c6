package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Dan9191/account-record-service/internal/logger"
)

// Kind is the stable error category sent to clients
type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindValidation           Kind = "VALIDATION_ERROR"
	KindVersionConflict      Kind = "VERSION_CONFLICT"
	KindAuthenticationFailed Kind = "AUTHENTICATION_FAILED"
	KindAccessDenied         Kind = "ACCESS_DENIED"
	KindMethodNotAllowed     Kind = "METHOD_NOT_ALLOWED"
	KindInternal             Kind = "INTERNAL_ERROR"
)

// Status maps an error kind to its HTTP status
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindVersionConflict:
		return http.StatusConflict
	case KindAuthenticationFailed:
		return http.StatusUnauthorized
	case KindAccessDenied:
		return http.StatusForbidden
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

// Envelope wraps successful responses
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorBody is returned for every failed request
type ErrorBody struct {
	Success       bool              `json:"success"`
	Error         Kind              `json:"error"`
	Message       string            `json:"message"`
	Errors        map[string]string `json:"errors,omitempty"`
	Path          string            `json:"path"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlationId,omitempty"`
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Error writes an error body for the request
func Error(w http.ResponseWriter, r *http.Request, kind Kind, message string, fields map[string]string) {
	JSON(w, kind.Status(), ErrorBody{
		Success:       false,
		Error:         kind,
		Message:       message,
		Errors:        fields,
		Path:          r.URL.Path,
		Timestamp:     time.Now().UTC(),
		CorrelationID: logger.CorrelationID(r.Context()),
	})
}
