// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable is matched by every error Ask returns.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrorType categorizes client errors for logging. Callers treat all of
// them the same way.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeDecode
)

// String returns a short name for log fields.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ClientError is a failed call to the backend.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int // set for ErrTypeStatus
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *ClientError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrBackendUnavailable, e.Cause}
	}
	return []error{ErrBackendUnavailable}
}

func newError(t ErrorType, cause error, format string, args ...any) *ClientError {
	return &ClientError{Type: t, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsUnavailable reports whether err came from a failed backend call.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return TypeOf(err) == ErrTypeTimeout
}

// TypeOf returns the classification of err, or ErrTypeUnknown.
func TypeOf(err error) ErrorType {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return ErrTypeUnknown
}
