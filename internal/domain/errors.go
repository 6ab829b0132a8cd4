package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeTransport     = "TRANSPORT_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidMeetingStatus    = NewDomainError(ErrCodeValidation, "invalid meeting status")
	ErrInvalidAgendaItemStatus = NewDomainError(ErrCodeValidation, "invalid agenda item status")
	ErrMissingExternalID       = NewDomainError(ErrCodeValidation, "source URL has no meeting Id parameter")
)

// Not found errors
var (
	ErrMunicipalityNotFound = NewDomainError(ErrCodeNotFound, "municipality not found")
	ErrMeetingNotFound      = NewDomainError(ErrCodeNotFound, "meeting not found")
	ErrAgendaItemNotFound   = NewDomainError(ErrCodeNotFound, "agenda item not found")
	ErrTagNotFound          = NewDomainError(ErrCodeNotFound, "tag not found")
)

// Already exists errors
var (
	ErrMunicipalityAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "municipality already exists")
)
