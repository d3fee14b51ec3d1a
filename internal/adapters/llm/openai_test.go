package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/stream"
)

func chatRequest() entities.ChatRequest {
	return entities.ChatRequest{Messages: []entities.ChatMessage{
		{Role: entities.RoleSystem, Content: "be brief"},
		{Role: entities.RoleUser, Content: "hi"},
	}}
}

func TestOpenAIAdapter_StreamForwardsEventStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])
		assert.Equal(t, float64(1024), body["max_tokens"])
		assert.Equal(t, DefaultModel, body["model"])
		assert.Len(t, body["messages"], 2)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\ndata: [DONE]\n\n"))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(Config{APIKey: "sk-test", BaseURL: server.URL + "/"})
	resp, err := adapter.Stream(context.Background(), chatRequest())
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	text, err := stream.Collect(context.Background(), resp)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestOpenAIAdapter_StreamUsesRequestModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		assert.Equal(t, float64(64), body["max_tokens"])
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(Config{APIKey: "k", BaseURL: server.URL, MaxTokens: 64})
	req := chatRequest()
	req.Model = "gpt-4o"
	resp, err := adapter.Stream(context.Background(), req)
	require.NoError(t, err)
	resp.Close()
}

func TestOpenAIAdapter_StreamReturnsErrorResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(Config{APIKey: "bad", BaseURL: server.URL})
	resp, err := adapter.Stream(context.Background(), chatRequest())
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_, err = stream.Collect(context.Background(), resp)
	assert.Equal(t, apperr.MsgInvalidKey, apperr.Message(err))
}

func TestOpenAIAdapter_MissingKey(t *testing.T) {
	adapter := NewOpenAIAdapter(Config{})

	assert.False(t, adapter.Configured())
	_, err := adapter.Stream(context.Background(), chatRequest())
	assert.True(t, apperr.IsCode(err, apperr.CodeConfiguration))
	assert.Equal(t, apperr.MsgMissingKey, apperr.Message(err))
	_, err = adapter.Complete(context.Background(), chatRequest())
	assert.True(t, apperr.IsCode(err, apperr.CodeConfiguration))
}

func TestOpenAIAdapter_Defaults(t *testing.T) {
	adapter := NewOpenAIAdapter(Config{APIKey: "k"})

	assert.True(t, adapter.Configured())
	assert.Equal(t, DefaultModel, adapter.Model())
	assert.Equal(t, DefaultBaseURL, adapter.cfg.BaseURL)
	assert.Equal(t, DefaultMaxTokens, adapter.cfg.MaxTokens)
}

func TestOpenAIAdapter_StreamConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewOpenAIAdapter(Config{APIKey: "k", BaseURL: url}).Stream(context.Background(), chatRequest())

	assert.True(t, apperr.IsCode(err, apperr.CodeUpstream))
	assert.Equal(t, http.StatusBadGateway, apperr.HTTPStatus(err))
}

func TestOpenAIAdapter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Nil(t, body["stream"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  DefaultModel,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Hello there!"},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	text, err := NewOpenAIAdapter(Config{APIKey: "k", BaseURL: server.URL}).Complete(context.Background(), chatRequest())

	require.NoError(t, err)
	assert.Equal(t, "Hello there!", text)
}

func TestOpenAIAdapter_CompleteMapsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAIAdapter(Config{APIKey: "bad", BaseURL: server.URL}).Complete(context.Background(), chatRequest())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeUpstream))
	assert.Equal(t, apperr.MsgInvalidKey, apperr.Message(err))
	assert.Equal(t, http.StatusUnauthorized, apperr.HTTPStatus(err))
}

func TestOpenAIAdapter_CompleteKeepsProviderMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(Config{APIKey: "k", BaseURL: server.URL})
	_, err := adapter.Complete(context.Background(), chatRequest())

	assert.Equal(t, "Rate limit reached", apperr.Message(err))
	assert.Equal(t, http.StatusTooManyRequests, apperr.HTTPStatus(err))
}
