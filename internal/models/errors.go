package models

import (
	"errors"
	"fmt"
)

// ErrorCode classifies resolver failures.
type ErrorCode string

const (
	CodeNoData       ErrorCode = "NO_DATA"
	CodeNetworkError ErrorCode = "NETWORK_ERROR"
	// CodeMultipleMatches is reserved. Ambiguity is reported through a low
	// confidence result with alternatives instead.
	CodeMultipleMatches ErrorCode = "MULTIPLE_MATCHES"
)

// Sentinels for errors.Is; they match any GisError with the same code.
var (
	ErrNoData          = &GisError{Code: CodeNoData}
	ErrNetwork         = &GisError{Code: CodeNetworkError}
	ErrMultipleMatches = &GisError{Code: CodeMultipleMatches}
)

// GisError is the typed failure returned by boundary sources and the resolver.
type GisError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *GisError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *GisError) Unwrap() error { return e.Err }

// Is matches on code only.
func (e *GisError) Is(target error) bool {
	t, ok := target.(*GisError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewNoDataError creates a NO_DATA error.
func NewNoDataError(msg string) *GisError {
	return &GisError{Code: CodeNoData, Message: msg}
}

// NewNetworkError creates a NETWORK_ERROR wrapping err.
func NewNetworkError(msg string, err error) *GisError {
	return &GisError{Code: CodeNetworkError, Message: msg, Err: err}
}

// AsGisError extracts a GisError from an error chain.
func AsGisError(err error) (*GisError, bool) {
	var gerr *GisError
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}
