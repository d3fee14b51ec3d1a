// Package transport implements ports.ChatTransport: in-process against the
// provider adapter, or over HTTP against a running chat proxy.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// Answer is the single-shot response body: the whole answer at once.
type Answer struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources"`
}

// ProviderTransport calls the provider in-process.
type ProviderTransport struct {
	provider  ports.ChatProvider
	streaming bool
}

// NewProviderTransport creates a transport over provider. When streaming is
// false each request is answered with one JSON payload.
func NewProviderTransport(provider ports.ChatProvider, streaming bool) *ProviderTransport {
	return &ProviderTransport{provider: provider, streaming: streaming}
}

// Send forwards req to the provider.
func (t *ProviderTransport) Send(ctx context.Context, req entities.ChatRequest) (*entities.ProviderResponse, error) {
	if !t.provider.Configured() {
		return nil, apperr.E(apperr.CodeConfiguration, "ProviderTransport.Send", apperr.MsgMissingKey, nil)
	}
	if t.streaming {
		return t.provider.Stream(ctx, req)
	}

	text, err := t.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(Answer{Text: text, Sources: []string{}})
	if err != nil {
		return nil, fmt.Errorf("encoding answer: %w", err)
	}
	return &entities.ProviderResponse{
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
		Buffered:    body,
	}, nil
}

var _ ports.ChatTransport = (*ProviderTransport)(nil)
