package service

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies menu analysis and retranslation failures.
type ErrorKind string

const (
	// KindEncodingFailed means a photo could not be decoded or re-encoded locally.
	KindEncodingFailed ErrorKind = "encoding_failed"
	// KindUnreadableMenu means the model answered but found no dishes.
	KindUnreadableMenu ErrorKind = "unreadable_menu"
	// KindInvalidResponse means the reply broke the JSON contract.
	KindInvalidResponse ErrorKind = "invalid_response"
	KindTimeout         ErrorKind = "timeout"
	KindServerError     ErrorKind = "server_error"
)

// Retryable reports whether a fresh attempt with the same input may succeed.
func (k ErrorKind) Retryable() bool {
	return k == KindTimeout || k == KindServerError
}

// AnalysisError is returned by every model-backed operation.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Is matches any *AnalysisError of the same kind, so errors.Is(err, ErrUnreadableMenu) works.
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrEncodingFailed  = &AnalysisError{Kind: KindEncodingFailed, Message: "failed to encode the menu images"}
	ErrUnreadableMenu  = &AnalysisError{Kind: KindUnreadableMenu, Message: "no dishes could be read from the menu"}
	ErrInvalidResponse = &AnalysisError{Kind: KindInvalidResponse, Message: "could not understand the model response"}
	ErrTimeout         = &AnalysisError{Kind: KindTimeout, Message: "the model did not answer in time"}
	ErrServerError     = &AnalysisError{Kind: KindServerError, Message: "the model endpoint failed"}
)

func newAnalysisError(kind ErrorKind, err error, format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or "" when err is not an *AnalysisError.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsRetryable reports whether the caller may retry the failed operation as is.
// Only timeouts and upstream failures qualify.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}

// classifyTransportError maps an http.Client failure to Timeout or ServerError.
// A cancelled context is passed through unclassified so it is never retried.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("model request canceled: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newAnalysisError(KindTimeout, err, "model request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newAnalysisError(KindTimeout, err, "model request timed out")
	}
	return newAnalysisError(KindServerError, err, "model request failed")
}
