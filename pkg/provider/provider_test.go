package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindMatching(t *testing.T) {
	err := NewError(KindRateLimited, "openai", "too many requests", nil)

	if !IsKind(err, KindRateLimited) {
		t.Error("IsKind should match the error's own kind")
	}
	if IsKind(err, KindTimeout) {
		t.Error("IsKind must not match other kinds")
	}
	if got := KindOf(err); got != KindRateLimited {
		t.Errorf("KindOf = %q, want %q", got, KindRateLimited)
	}
}

func TestErrorKindThroughWrapping(t *testing.T) {
	inner := NewError(KindTruncated, "anthropic", "output truncated", nil)
	wrapped := fmt.Errorf("critique call: %w", inner)

	if !IsKind(wrapped, KindTruncated) {
		t.Error("IsKind should see through fmt.Errorf wrapping")
	}
	if KindOf(wrapped) != KindTruncated {
		t.Error("KindOf should see through fmt.Errorf wrapping")
	}
}

func TestErrorKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %q, want %q", got, KindUnknown)
	}
	if got := KindOf(context.DeadlineExceeded); got != KindTimeout {
		t.Errorf("KindOf(deadline exceeded) = %q, want %q", got, KindTimeout)
	}
	if IsKind(nil, KindTimeout) {
		t.Error("IsKind(nil) must be false")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(KindUnknown, "openai", "request failed", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause must be reachable via errors.Is")
	}
}
