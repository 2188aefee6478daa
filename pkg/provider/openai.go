package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kadirpekel/quorum/pkg/config"
	"github.com/kadirpekel/quorum/pkg/httpclient"
)

// OpenAIProvider calls the OpenAI chat completions API.
type OpenAIProvider struct {
	config     *config.ProviderConfig
	httpClient *httpclient.Client
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Error   *openAIError   `json:"error,omitempty"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// NewOpenAIProviderFromConfig creates an OpenAI provider.
func NewOpenAIProviderFromConfig(cfg *config.ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI")
	}
	if cfg.Host == "" {
		cfg.Host = "https://api.openai.com/v1"
	}

	return &OpenAIProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Timeout) * time.Second,
			}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(time.Duration(cfg.RetryDelay)*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
		),
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Invoke implements Provider.
func (p *OpenAIProvider) Invoke(ctx context.Context, role string, input string, limits Limits) (string, error) {
	maxTokens := limits.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	request := openAIRequest{
		Model: p.config.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: role},
			{Role: "user", Content: input},
		},
		MaxTokens:   &maxTokens,
		Temperature: limits.Temperature,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", NewError(KindUnknown, "openai", "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.Host+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", NewError(KindUnknown, "openai", "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", classifyHTTPError("openai", resp, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewError(KindUnknown, "openai", "failed to read response", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewError(KindUnknown, "openai", "failed to decode response", err)
	}
	if parsed.Error != nil {
		return "", NewError(KindUnknown, "openai", parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return "", NewError(KindUnknown, "openai", "response contained no choices", nil)
	}

	choice := parsed.Choices[0]
	if choice.FinishReason == "length" {
		// Output was cut off: report truncation but keep the partial text.
		return choice.Message.Content,
			NewError(KindTruncated, "openai", "output truncated at max tokens", nil)
	}

	return choice.Message.Content, nil
}

// classifyHTTPError maps transport/HTTP failures onto the provider
// error taxonomy.
func classifyHTTPError(providerName string, resp *http.Response, err error) *Error {
	if resp != nil {
		resp.Body.Close()
	}

	var retryErr *httpclient.RetryableError
	if errors.As(err, &retryErr) {
		switch {
		case retryErr.IsRateLimited():
			return NewError(KindRateLimited, providerName, "rate limited", err)
		case retryErr.IsAuthFailure():
			return NewError(KindAuthInvalid, providerName, "authentication failed", err)
		default:
			return NewError(KindUnknown, providerName, "request failed", err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, providerName, "request timed out", err)
	}
	// http.Client wraps its own deadline into a url.Error with Timeout().
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return NewError(KindTimeout, providerName, "request timed out", err)
	}

	return NewError(KindUnknown, providerName, "request failed", err)
}
