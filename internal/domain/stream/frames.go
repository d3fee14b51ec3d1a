package stream

import (
	"encoding/json"
	"strings"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// lineBuffer splits decoded text into lines, keeping an unterminated tail
// until the next push.
type lineBuffer struct {
	pending string
}

// push appends text and returns every line completed by it.
func (l *lineBuffer) push(text string) []string {
	if text == "" {
		return nil
	}
	text = l.pending + text
	idx := strings.LastIndexByte(text, '\n')
	if idx < 0 {
		l.pending = text
		return nil
	}
	l.pending = text[idx+1:]
	return strings.Split(text[:idx], "\n")
}

// flush returns the unterminated tail, if any.
func (l *lineBuffer) flush() string {
	tail := l.pending
	l.pending = ""
	return tail
}

// chunkFrame is the subset of a chat-completion chunk we read. Only the
// first choice is decoded, so malformed later choices are ignored.
type chunkFrame struct {
	Choices []json.RawMessage `json:"choices"`
}

type choiceFrame struct {
	Delta struct {
		Content *string `json:"content"`
	} `json:"delta"`
}

// ParseLine extracts the delta carried by one event-stream line. ok is false
// for lines without a data prefix, the [DONE] sentinel, payloads that are not
// valid JSON, and chunks without a string choices[0].delta.content.
func ParseLine(line string) (delta string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, dataPrefix) {
		return "", false
	}
	payload := strings.TrimSpace(trimmed[len(dataPrefix):])
	if payload == doneSentinel {
		return "", false
	}

	var frame chunkFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return "", false
	}
	if len(frame.Choices) == 0 {
		return "", false
	}
	var choice choiceFrame
	if err := json.Unmarshal(frame.Choices[0], &choice); err != nil || choice.Delta.Content == nil {
		return "", false
	}
	return *choice.Delta.Content, true
}

// ExtractError returns the user-facing message for a failed response body.
func ExtractError(body []byte) string {
	msg, code := ParseError(body)
	switch {
	case code == "invalid_api_key":
		return apperr.MsgInvalidKey
	case msg == "":
		return apperr.MsgUpstreamFailed
	default:
		return msg
	}
}

// ParseError reads the message and code of an error body. It accepts both the
// proxy shape {"error":"msg","code":"..."} and the provider shape
// {"error":{"message":"msg","code":"..."}}. A top-level code wins.
func ParseError(body []byte) (message, code string) {
	var payload struct {
		Error json.RawMessage `json:"error"`
		Code  json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}

	message, code = errorField(payload.Error)
	if top := stringValue(payload.Code); top != "" {
		code = top
	}
	return message, code
}

func errorField(raw json.RawMessage) (message, code string) {
	if s := stringValue(raw); s != "" {
		return s, ""
	}
	var obj struct {
		Message json.RawMessage `json:"message"`
		Code    json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", ""
	}
	return stringValue(obj.Message), stringValue(obj.Code)
}

// stringValue decodes raw when it is a JSON string and returns "" otherwise.
func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
