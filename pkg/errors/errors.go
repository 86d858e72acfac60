package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error that knows the HTTP status and stable code it
// should surface as. Err holds the underlying cause and stays out of
// JSON responses.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds an Error with no underlying cause.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap builds an Error around a cause.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid credentials")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrDuplicate          = New("DUPLICATE", http.StatusConflict, "record already exists")
	ErrAlreadyRegistered  = New("ALREADY_REGISTERED", http.StatusConflict, "student already registered")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrTransport          = New("TRANSPORT_ERROR", http.StatusBadGateway, "upstream provider call failed")
	ErrPartialCascade     = New("PARTIAL_CASCADE_FAILURE", http.StatusInternalServerError, "cascade delete failed partway")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError coerces any error into an *Error. Unknown errors become
// INTERNAL_ERROR with the original kept as the cause.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a sentinel so callers can override the message without
// mutating the shared value.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	c := *err
	if message != "" {
		c.Message = message
	}
	return &c
}
