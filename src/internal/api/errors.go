package api

import (
	"encoding/json"
	"errors"
	"net/http"

	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
)

// ErrorCode represents standard API error codes.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates malformed or invalid request data.
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeConflict indicates the store changed since the client read it.
	ErrCodeConflict ErrorCode = "conflict"

	// ErrCodeForbidden indicates a request from a disallowed client.
	ErrCodeForbidden ErrorCode = "forbidden"

	// ErrCodeInternalError indicates an internal server error.
	ErrCodeInternalError ErrorCode = "internal_error"

	// ErrCodeValidationFailed indicates an edit was rejected.
	ErrCodeValidationFailed ErrorCode = "validation_failed"

	// ErrCodeStoreError indicates the configuration store could not be read or written.
	ErrCodeStoreError ErrorCode = "store_error"
)

// APIError represents a structured API error response.
type APIError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError for JSON responses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code ErrorCode, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// WithDetails adds details to an APIError.
func (e APIError) WithDetails(details map[string]interface{}) APIError {
	e.Details = details
	return e
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, statusCode int, err APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// WriteInvalidRequest writes a 400 Bad Request error.
func WriteInvalidRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, NewAPIError(ErrCodeInvalidRequest, message))
}

// WriteNotFound writes a 404 Not Found error.
func WriteNotFound(w http.ResponseWriter, resource string) {
	WriteError(w, http.StatusNotFound, NewAPIError(ErrCodeNotFound, resource+" not found"))
}

// WritePreconditionFailed writes a 412 Precondition Failed error.
func WritePreconditionFailed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusPreconditionFailed, NewAPIError(ErrCodeConflict, message))
}

// WriteForbidden writes a 403 Forbidden error.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// WriteInternalError writes a 500 Internal Server Error.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// WriteValidationError writes a 400 Bad Request with validation details.
func WriteValidationError(w http.ResponseWriter, message string, details map[string]interface{}) {
	err := NewAPIError(ErrCodeValidationFailed, message).WithDetails(details)
	WriteError(w, http.StatusBadRequest, err)
}

// WriteEngineError maps an engine or store error onto an HTTP response.
func WriteEngineError(w http.ResponseWriter, err error) {
	var e *pcerrors.Error
	if !errors.As(err, &e) {
		WriteInternalError(w, err.Error())
		return
	}

	switch e.Code {
	case pcerrors.ErrCodeStore:
		WriteError(w, http.StatusInternalServerError, NewAPIError(ErrCodeStoreError, e.Error()))
	case pcerrors.ErrCodeInternal, pcerrors.ErrCodeConfig:
		WriteInternalError(w, e.Error())
	case pcerrors.ErrCodeReferenceNotFound:
		WriteError(w, http.StatusNotFound, NewAPIError(ErrCodeNotFound, e.Message).WithDetails(errorDetails(e)))
	default:
		WriteValidationError(w, e.Message, errorDetails(e))
	}
}

func errorDetails(e *pcerrors.Error) map[string]interface{} {
	details := map[string]interface{}{"code": string(e.Code)}
	if e.Field != "" {
		details["field"] = e.Field
	}
	if e.Value != "" {
		details["value"] = e.Value
	}
	return details
}
