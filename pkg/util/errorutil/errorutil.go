package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidAction       = "INVALID_ACTION"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInternal            = "INTERNAL_ERROR"
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewInvalidAction reports an acao outside the recognized set.
func NewInvalidAction(acao string) error {
	return NewDomainError(CodeInvalidAction,
		fmt.Sprintf("invalid action %q: use aceitar, rejeitar or concluir", acao),
		http.StatusBadRequest, map[string]any{"acao": acao})
}

// NewInvalidTransition reports a recognized action that the current status does not allow.
func NewInvalidTransition(acao, status string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("action %q not allowed for status %q", acao, status),
		http.StatusConflict, map[string]any{"acao": acao, "status": status})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewUpstreamUnavailable wraps a failure of an external collaborator.
func NewUpstreamUnavailable(service string, status int, err error) error {
	return &DomainError{
		Code:       CodeUpstreamUnavailable,
		Message:    fmt.Sprintf("%s unavailable", service),
		HTTPStatus: status,
		Details:    map[string]any{"service": service},
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func MapError(err error) error {
	return ToDomainError(err)
}
