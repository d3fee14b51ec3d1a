package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delta string
		ok    bool
	}{
		{"content", `data: {"choices":[{"delta":{"content":"Hi"}}]}`, "Hi", true},
		{"no space after prefix", `data:{"choices":[{"delta":{"content":"Hi"}}]}`, "Hi", true},
		{"leading whitespace", `   data: {"choices":[{"delta":{"content":"Hi"}}]}  `, "Hi", true},
		{"empty content is still a string", `data: {"choices":[{"delta":{"content":""}}]}`, "", true},
		{"done sentinel", `data: [DONE]`, "", false},
		{"not json", `data: {not json}`, "", false},
		{"non-string content", `data: {"choices":[{"delta":{"content":42}}]}`, "", false},
		{"null content", `data: {"choices":[{"delta":{"content":null}}]}`, "", false},
		{"no choices", `data: {"id":"x"}`, "", false},
		{"malformed later choice", `data: {"choices":[{"delta":{"content":"x"}},1]}`, "x", true},
		{"malformed first choice", `data: {"choices":[1,{"delta":{"content":"x"}}]}`, "", false},
		{"choices not a list", `data: {"choices":{"delta":{"content":"x"}}}`, "", false},
		{"comment", `: ping`, "", false},
		{"blank", ``, "", false},
		{"other field", `event: message`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, ok := ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.delta, delta)
		})
	}
}

func TestExtractError(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":{"message":"boom","code":"invalid_api_key"}}`, apperr.MsgInvalidKey},
		{`{"error":"Incorrect API key","code":"invalid_api_key"}`, apperr.MsgInvalidKey},
		{`{"error":{"message":"boom","code":"rate_limit_exceeded"}}`, "boom"},
		{`{"error":"Falha na chamada OpenAI","code":null}`, "Falha na chamada OpenAI"},
		{`{"error":{}}`, apperr.MsgUpstreamFailed},
		{`{"detail":"nope"}`, apperr.MsgUpstreamFailed},
		{`<html>bad gateway</html>`, apperr.MsgUpstreamFailed},
		{``, apperr.MsgUpstreamFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractError([]byte(tt.body)), tt.body)
	}
}

func TestParseError(t *testing.T) {
	msg, code := ParseError([]byte(`{"error":{"message":"Incorrect API key","code":"invalid_api_key"}}`))
	assert.Equal(t, "Incorrect API key", msg)
	assert.Equal(t, "invalid_api_key", code)

	msg, code = ParseError([]byte(`{"error":{"message":"m","code":"inner"},"code":"outer"}`))
	assert.Equal(t, "m", msg)
	assert.Equal(t, "outer", code)

	msg, code = ParseError([]byte(`not json`))
	assert.Empty(t, msg)
	assert.Empty(t, code)
}

func TestLineBuffer_CarriesPartialLines(t *testing.T) {
	var lb lineBuffer

	assert.Nil(t, lb.push("data: a"))
	assert.Equal(t, []string{"data: ab", ""}, lb.push("b\n\ndata: c"))
	assert.Equal(t, "data: c", lb.flush())
	assert.Equal(t, "", lb.flush())
}
