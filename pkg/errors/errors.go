// Package errors provides machine-readable error codes for forgemap.
//
// Library packages return sentinel errors wrapped with %w. The HTTP server
// and the CLI translate them into an [*Error] carrying a [Code] so clients
// can branch on the failure kind without parsing messages:
//
//	err := errors.New(errors.ErrCodeInvalidInput, "query cannot be empty")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // 400
//	}
//
//	err = errors.Wrap(errors.ErrCodeNetwork, cause, "fetch project %d", id)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidToken Code = "INVALID_TOKEN"

	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeUnknownNode       Code = "UNKNOWN_NODE"
	ErrCodeWorkspaceNotFound Code = "WORKSPACE_NOT_FOUND"

	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	ErrCodeSuperseded Code = "SUPERSEDED"
	ErrCodeInternal   Code = "INTERNAL_ERROR"
)

// Error carries a code for API clients, a message safe to show them and the
// underlying cause for logs.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Temporary reports whether retrying the same request later may succeed.
func (e *Error) Temporary() bool {
	return e.Code == ErrCodeNetwork || e.Code == ErrCodeRateLimited || e.Code == ErrCodeSuperseded
}

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap returns an Error whose cause is err.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether the first *Error in err's chain has code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the first *Error in err's chain
// without its code or cause, or err.Error() for other errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps a code to the response status the server uses for it.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidToken:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeUnknownNode, ErrCodeWorkspaceNotFound:
		return http.StatusNotFound
	case ErrCodeNetwork:
		return http.StatusBadGateway
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeSuperseded:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
