package domain

import (
	"errors"
	"fmt"
)

// Codes carried by DomainError. The HTTP layer maps each to a status.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeMalformedContent = "MALFORMED_CONTENT"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// DomainError is an error with a stable code. Two DomainErrors match under
// errors.Is when code and message agree, so a copy carrying a cause still
// matches its sentinel.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return "[" + e.Code + "] " + e.Message
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code && e.Message == t.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause attaches err as the cause.
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

var (
	ErrInvalidKind          = NewDomainError(ErrCodeValidation, "invalid content kind")
	ErrInvalidStatus        = NewDomainError(ErrCodeValidation, "invalid content status")
	ErrInvalidSlug          = NewDomainError(ErrCodeValidation, "invalid slug")
	ErrUnknownPillar        = NewDomainError(ErrCodeValidation, "unknown pillar")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")

	ErrContentNotFound         = NewDomainError(ErrCodeNotFound, "content item not found")
	ErrInvalidationJobNotFound = NewDomainError(ErrCodeNotFound, "invalidation job not found")

	ErrSlugTaken    = NewDomainError(ErrCodeAlreadyExists, "slug already in use")
	ErrInvalidToken = NewDomainError(ErrCodeUnauthorized, "invalid editor token")
)

// ErrMalformedContent marks content that cannot be compiled. It is the only
// resolution failure allowed to reach callers.
var ErrMalformedContent = NewDomainError(ErrCodeMalformedContent, "content cannot be compiled")

// MalformedContent wraps a compile failure so errors.Is(err, ErrMalformedContent) holds.
func MalformedContent(err error) error {
	return NewDomainErrorWithCause(ErrCodeMalformedContent, ErrMalformedContent.Message, err)
}

func IsNotFound(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == ErrCodeNotFound
}
