package model

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrValidation is returned when a filter, sort or page request
	// references fields or shapes the schema does not allow.
	ErrValidation = errors.New("validation failed")
	// ErrMalformedCursor is returned when a cursor token cannot be decoded.
	ErrMalformedCursor = errors.New("malformed cursor")
	// ErrUnsupportedOperator is returned under strict filter evaluation
	// when an operator is not applicable to the field's declared kind.
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrPageSizeOutOfRange is returned instead of clamping when the
	// embedding application opts out of page-size clamping.
	ErrPageSizeOutOfRange = errors.New("page size out of range")
	// ErrNotFound is returned when a collection or record is not found.
	ErrNotFound = errors.New("not found")
	// ErrCanceled is returned when the operation is canceled by the client.
	ErrCanceled = errors.New("operation canceled")
)

// WrapError converts context cancellation into ErrCanceled and passes
// every other error through.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return ErrCanceled
	}
	return err
}

// IsCanceled returns true if the error is due to context cancellation or
// deadline exceeded. It checks both direct context errors and wrapped
// errors coming back from transports.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrCanceled) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "context deadline exceeded")
}
