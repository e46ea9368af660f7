package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloo-solutions/pillarpress/internal/domain"
)

// SuccessResponse is the {"data": ...} envelope of every 2xx reply.
type SuccessResponse struct {
	Data any `json:"data"`
}

// ErrorResponse carries a message and, for domain errors, the stable code.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes data as the whole body. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Success writes data inside the envelope.
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes a codeless error body.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

var statusByCode = map[string]int{
	domain.ErrCodeValidation:       http.StatusBadRequest,
	domain.ErrCodeInvalidOperation: http.StatusBadRequest,
	domain.ErrCodeNotFound:         http.StatusNotFound,
	domain.ErrCodeAlreadyExists:    http.StatusConflict,
	domain.ErrCodeUnauthorized:     http.StatusUnauthorized,
	domain.ErrCodeForbidden:        http.StatusForbidden,
	domain.ErrCodeMalformedContent: http.StatusUnprocessableEntity,
}

// DomainErrorToHTTP maps domain errors to HTTP status codes. Anything that is
// not a DomainError, or carries an unknown code, is a 500.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}
	if status, ok := statusByCode[domainErr.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError writes the error response for err. Only domain errors the
// caller can act on expose their message; malformed content also names the
// compile failure so editors can fix the document.
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) || status == http.StatusInternalServerError {
		Error(w, status, http.StatusText(status))
		return
	}

	message := domainErr.Message
	if domainErr.Code == domain.ErrCodeMalformedContent && domainErr.Err != nil {
		message += ": " + domainErr.Err.Error()
	}
	JSON(w, status, ErrorResponse{Error: message, Code: domainErr.Code})
}
