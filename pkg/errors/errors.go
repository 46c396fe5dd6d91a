package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrConflict
	ErrCapacity
	ErrConcurrency
	ErrTiming
	ErrInternal
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewConflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

// NewCapacity marks a soft limit condition. Callers log it and degrade
// to best-effort behavior instead of rejecting the request.
func NewCapacity(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCapacity,
		Message: message,
		Err:     err,
	}
}

// NewConcurrency marks transient contention that the caller may retry
// with backoff.
func NewConcurrency(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConcurrency,
		Message: message,
		Err:     err,
	}
}

func NewTiming(message string, err error) *AppError {
	return &AppError{
		Code:    ErrTiming,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

// Code extracts the ErrorCode from an error chain, 0 if none.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

func IsNotFound(err error) bool    { return Code(err) == ErrNotFound }
func IsBadRequest(err error) bool  { return Code(err) == ErrBadRequest }
func IsConflict(err error) bool    { return Code(err) == ErrConflict }
func IsCapacity(err error) bool    { return Code(err) == ErrCapacity }
func IsConcurrency(err error) bool { return Code(err) == ErrConcurrency }
func IsTiming(err error) bool      { return Code(err) == ErrTiming }
