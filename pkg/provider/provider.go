// Package provider defines the capability-provider contract the review
// workflow depends on: given role instructions and an input context,
// return generated text. Implementations wrap concrete LLM vendor APIs;
// the workflow only sees this interface and the error taxonomy below.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Limits bounds a single capability invocation.
type Limits struct {
	// MaxOutputTokens caps the generated output length. Zero means the
	// provider default.
	MaxOutputTokens int

	// Temperature is the sampling temperature for this call.
	Temperature float64
}

// Provider is the single capability the workflow consumes.
type Provider interface {
	// Invoke sends role instructions plus an input context and returns
	// the generated text. A truncated generation returns the partial
	// text together with a *Error of KindTruncated.
	Invoke(ctx context.Context, role string, input string, limits Limits) (string, error)

	// Name identifies the provider (openai, anthropic, mock).
	Name() string
}

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindAuthInvalid ErrorKind = "auth_invalid"
	KindTimeout     ErrorKind = "timeout"
	KindTruncated   ErrorKind = "truncated"
	KindUnknown     ErrorKind = "unknown"
)

// Error is a provider failure with a stable classification. Truncation
// is recoverable: the partial output accompanies the error.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Provider, e.Kind, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified provider error.
func NewError(kind ErrorKind, providerName, message string, err error) *Error {
	return &Error{
		Kind:     kind,
		Provider: providerName,
		Message:  message,
		Err:      err,
	}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// KindOf extracts the classification from err, defaulting to KindUnknown
// for foreign errors. Context timeouts classify as KindTimeout.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}
