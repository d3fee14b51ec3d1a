package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"

	"github.com/0xcro3dile/docchat-go/internal/adapters/transport"
	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/stream"
)

const (
	maxChatBody    = 2 << 20
	maxErrorBody   = 1 << 20
	msgProxyFailed = "Falha na chamada OpenAI"
)

type chatRequest struct {
	Messages []entities.ChatMessage `json:"messages"`
	Model    string                 `json:"model"`
}

// handleChat proxies a chat request to the provider. In streaming mode the
// provider's event stream is relayed unchanged.
func (s *Server) handleChat(c *gin.Context) {
	const op = "Server.handleChat"

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxChatBody)
	var body chatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.E(apperr.CodeInvalidArgument, op, "Requisição inválida.", err))
		return
	}

	if !s.provider.Configured() {
		s.log.Error("OPENAI_API_KEY missing from environment and dotenv files")
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperr.MsgMissingKey})
		return
	}

	req := entities.ChatRequest{Messages: body.Messages, Model: body.Model}
	if req.Messages == nil {
		req.Messages = []entities.ChatMessage{}
	}
	ctx := c.Request.Context()

	if !s.opts.Streaming {
		text, err := s.provider.Complete(ctx, req)
		if err != nil {
			c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err), "code": providerCode(err)})
			return
		}
		c.JSON(http.StatusOK, transport.Answer{Text: text, Sources: []string{}})
		return
	}

	resp, err := s.provider.Stream(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}
	defer resp.Close()

	if !resp.OK() || resp.Body == nil {
		status, payload := relayedError(resp)
		c.JSON(status, payload)
		return
	}

	w := &sse{c: c}
	w.start()
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			s.log.WithError(err).Warn("relaying event stream")
			return
		}
	}
}

// relayedError turns a failed provider response into the proxy error body.
func relayedError(resp *entities.ProviderResponse) (int, gin.H) {
	raw := resp.Buffered
	if raw == nil && resp.Body != nil {
		raw, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	}

	msg, code := stream.ParseError(raw)
	if msg == "" && !json.Valid(raw) {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = msgProxyFailed
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := gin.H{"error": msg, "code": nil}
	if code != "" {
		payload["code"] = code
	}
	return status, payload
}

// providerCode returns the provider error code carried by err, or nil.
func providerCode(err error) any {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != nil {
		return apiErr.Code
	}
	return nil
}
