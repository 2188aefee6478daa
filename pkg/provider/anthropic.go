package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kadirpekel/quorum/pkg/config"
	"github.com/kadirpekel/quorum/pkg/httpclient"
)

// AnthropicProvider calls the Anthropic messages API.
type AnthropicProvider struct {
	config     *config.ProviderConfig
	httpClient *httpclient.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
	Error      *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewAnthropicProviderFromConfig creates an Anthropic provider.
func NewAnthropicProviderFromConfig(cfg *config.ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Anthropic")
	}
	if cfg.Host == "" {
		cfg.Host = "https://api.anthropic.com"
	}

	return &AnthropicProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Timeout) * time.Second,
			}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(time.Duration(cfg.RetryDelay)*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseAnthropicHeaders),
		),
	}, nil
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Invoke implements Provider.
func (p *AnthropicProvider) Invoke(ctx context.Context, role string, input string, limits Limits) (string, error) {
	maxTokens := limits.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	request := anthropicRequest{
		Model:     p.config.Model,
		MaxTokens: maxTokens,
		System:    role,
		Messages: []anthropicMessage{
			{Role: "user", Content: input},
		},
		Temperature: limits.Temperature,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", NewError(KindUnknown, "anthropic", "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.Host+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", NewError(KindUnknown, "anthropic", "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", classifyHTTPError("anthropic", resp, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewError(KindUnknown, "anthropic", "failed to read response", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewError(KindUnknown, "anthropic", "failed to decode response", err)
	}
	if parsed.Error != nil {
		return "", NewError(KindUnknown, "anthropic", parsed.Error.Message, nil)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", NewError(KindUnknown, "anthropic", "response contained no text", nil)
	}

	if parsed.StopReason == "max_tokens" {
		return text.String(),
			NewError(KindTruncated, "anthropic", "output truncated at max tokens", nil)
	}

	return text.String(), nil
}
