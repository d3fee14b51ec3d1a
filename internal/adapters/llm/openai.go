// Package llm provides the OpenAI chat-completions adapter.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 1024
)

// Config configures the adapter.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// OpenAIAdapter implements ports.ChatProvider against an OpenAI-compatible API.
// Stream returns the provider's event stream untouched so it can be proxied
// byte for byte; Complete goes through the go-openai client.
type OpenAIAdapter struct {
	cfg    Config
	http   *http.Client
	client *openai.Client
}

// NewOpenAIAdapter creates a new adapter. Empty fields take the defaults.
func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	// No overall timeout: streams stay open as long as the model writes.
	httpClient := &http.Client{Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 60 * time.Second,
	}}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = httpClient

	return &OpenAIAdapter{
		cfg:    cfg,
		http:   httpClient,
		client: openai.NewClientWithConfig(oc),
	}
}

// Configured reports whether an API key is set.
func (a *OpenAIAdapter) Configured() bool {
	return a.cfg.APIKey != ""
}

// Model returns the default model.
func (a *OpenAIAdapter) Model() string {
	return a.cfg.Model
}

// Stream opens a streaming chat completion. Non-2xx responses are returned
// as-is; reading the error body is left to the caller.
func (a *OpenAIAdapter) Stream(ctx context.Context, req entities.ChatRequest) (*entities.ProviderResponse, error) {
	const op = "OpenAIAdapter.Stream"
	if !a.Configured() {
		return nil, apperr.E(apperr.CodeConfiguration, op, apperr.MsgMissingKey, nil)
	}

	body := a.request(req)
	body.Stream = true
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.http.Do(httpReq)
	if err != nil {
		return nil, apperr.Upstream(op, apperr.MsgUpstreamFailed, 0, fmt.Errorf("calling provider: %w", err))
	}

	return &entities.ProviderResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// Complete runs a non-streaming chat completion and returns the first choice.
func (a *OpenAIAdapter) Complete(ctx context.Context, req entities.ChatRequest) (string, error) {
	const op = "OpenAIAdapter.Complete"
	if !a.Configured() {
		return "", apperr.E(apperr.CodeConfiguration, op, apperr.MsgMissingKey, nil)
	}

	resp, err := a.client.CreateChatCompletion(ctx, a.request(req))
	if err != nil {
		return "", upstreamError(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *OpenAIAdapter) request(req entities.ChatRequest) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = a.cfg.Model
	}
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:     model,
		Messages:  msgs,
		MaxTokens: a.cfg.MaxTokens,
	}
}

// upstreamError maps go-openai errors onto UPSTREAM errors with the provider
// status and a user-facing message.
func upstreamError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if code, _ := apiErr.Code.(string); code == "invalid_api_key" {
			msg = apperr.MsgInvalidKey
		}
		if msg == "" {
			msg = apperr.MsgUpstreamFailed
		}
		return apperr.Upstream(op, msg, apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperr.Upstream(op, apperr.MsgUpstreamFailed, reqErr.HTTPStatusCode, err)
	}
	return apperr.Upstream(op, apperr.MsgUpstreamFailed, 0, err)
}

var _ ports.ChatProvider = (*OpenAIAdapter)(nil)
