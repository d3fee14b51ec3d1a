package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// ChatPath is where the proxy serves chat completions.
const ChatPath = "/api/chat"

// HTTPTransport posts chat requests to a remote proxy and hands back the raw
// response for the stream consumer.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTransport creates a transport for the proxy at baseURL.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{
		endpoint: strings.TrimRight(baseURL, "/") + ChatPath,
		client:   client,
	}
}

// Send posts req as JSON. The response body is left open for the caller.
func (t *HTTPTransport) Send(ctx context.Context, req entities.ChatRequest) (*entities.ProviderResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Upstream("HTTPTransport.Send", apperr.MsgUpstreamFailed, 0,
			fmt.Errorf("calling %s: %w", t.endpoint, err))
	}

	return &entities.ProviderResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

var _ ports.ChatTransport = (*HTTPTransport)(nil)
