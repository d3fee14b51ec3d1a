// Package stream turns a chat response into answer text. A response is either
// a single buffered JSON payload or an event stream of chat-completion chunks;
// the mode is resolved once from the response headers.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// Mode is how a response body is read.
type Mode int

const (
	ModeSingleShot Mode = iota
	ModeStreaming
)

func (m Mode) String() string {
	switch m {
	case ModeSingleShot:
		return "single-shot"
	case ModeStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

const (
	readSize     = 4096
	maxErrorBody = 1 << 20
)

// DeltaFunc receives answer fragments in arrival order.
type DeltaFunc func(delta string)

// ResolveMode picks single-shot for JSON responses and responses without a
// byte stream, streaming otherwise.
func ResolveMode(resp *entities.ProviderResponse) Mode {
	if isJSON(resp.ContentType) || resp.Body == nil {
		return ModeSingleShot
	}
	return ModeStreaming
}

// Consume reads resp and hands each delta to onDelta. A failed response is
// reported as a single UPSTREAM error before any delta is emitted. The context
// is checked between reads.
func Consume(ctx context.Context, resp *entities.ProviderResponse, onDelta DeltaFunc) error {
	if err := guard(resp); err != nil {
		return err
	}

	switch ResolveMode(resp) {
	case ModeSingleShot:
		if text := singleShotText(resp); text != "" {
			onDelta(text)
		}
		return nil
	default:
		return consumeEvents(ctx, resp.Body, onDelta)
	}
}

// Collect reads resp and returns the whole answer. On failure the text
// received so far is returned alongside the error.
func Collect(ctx context.Context, resp *entities.ProviderResponse) (string, error) {
	var sb strings.Builder
	err := Consume(ctx, resp, func(delta string) {
		sb.WriteString(delta)
	})
	return sb.String(), err
}

func guard(resp *entities.ProviderResponse) error {
	if resp.OK() && (resp.Body != nil || isJSON(resp.ContentType)) {
		return nil
	}
	msg := ExtractError(readBody(resp, maxErrorBody))
	return apperr.Upstream("stream.Consume", msg, resp.StatusCode,
		fmt.Errorf("provider responded with status %d", resp.StatusCode))
}

func singleShotText(resp *entities.ProviderResponse) string {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(readBody(resp, -1), &payload); err != nil {
		return ""
	}
	return payload.Text
}

func consumeEvents(ctx context.Context, body io.Reader, onDelta DeltaFunc) error {
	dec := NewDecoder()
	var lines lineBuffer
	emit := func(ls ...string) {
		for _, line := range ls {
			if delta, ok := ParseLine(line); ok {
				onDelta(delta)
			}
		}
	}

	buf := make([]byte, readSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := body.Read(buf)
		if n > 0 {
			emit(lines.push(dec.Decode(buf[:n]))...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return apperr.Upstream("stream.Consume", apperr.MsgUpstreamFailed, 0,
				fmt.Errorf("reading event stream: %w", err))
		}
	}

	emit(lines.push(dec.Flush())...)
	emit(lines.flush())
	return nil
}

// readBody prefers the buffered body and otherwise drains the stream, up to
// limit bytes when limit > 0. Read errors yield whatever was read.
func readBody(resp *entities.ProviderResponse, limit int64) []byte {
	if resp.Buffered != nil {
		return resp.Buffered
	}
	if resp.Body == nil {
		return nil
	}
	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(r, limit)
	}
	data, _ := io.ReadAll(r)
	return data
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}
