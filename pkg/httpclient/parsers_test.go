package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestParseAnthropicHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("retry-after", "30")
	headers.Set("anthropic-ratelimit-requests-reset", "2026-08-29T12:00:00Z")

	info := ParseAnthropicHeaders(headers)
	if info.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", info.RetryAfter)
	}
	want := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC).Unix()
	if info.ResetTime != want {
		t.Errorf("ResetTime = %d, want %d", info.ResetTime, want)
	}
}

func TestParseAnthropicHeadersMalformed(t *testing.T) {
	headers := http.Header{}
	headers.Set("retry-after", "soon")
	headers.Set("anthropic-ratelimit-requests-reset", "not a timestamp")

	info := ParseAnthropicHeaders(headers)
	if info.RetryAfter != 0 || info.ResetTime != 0 {
		t.Errorf("malformed headers must parse to zero values, got %+v", info)
	}
}

func TestParseOpenAIHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "12")
	headers.Set("x-ratelimit-reset-requests", "1790000000")

	info := ParseOpenAIHeaders(headers)
	if info.RetryAfter != 12*time.Second {
		t.Errorf("RetryAfter = %v, want 12s", info.RetryAfter)
	}
	if info.ResetTime != 1790000000 {
		t.Errorf("ResetTime = %d, want 1790000000", info.ResetTime)
	}
}

func TestParseOpenAIHeadersEmpty(t *testing.T) {
	info := ParseOpenAIHeaders(http.Header{})
	if info.RetryAfter != 0 || info.ResetTime != 0 {
		t.Errorf("empty headers must parse to zero values, got %+v", info)
	}
}
