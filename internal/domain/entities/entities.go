// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import (
	"io"
	"time"
)

// Document is the extracted text of one or more uploaded sources.
// Immutable once produced by the ingestion layer.
type Document struct {
	ID        string
	Name      string
	Path      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Source is a raw uploaded file before text extraction.
type Source struct {
	Name        string
	ContentType string
	Data        []byte
}

// ScoredBlock is a paragraph of a document with its relevance score for a question.
type ScoredBlock struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
	Index int    `json:"index"` // position in document
}

// Chat roles used in provider requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one provider-agnostic message of a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat transport.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Model    string        `json:"model,omitempty"`
}

// ProviderResponse describes a chat response as seen by the stream consumer:
// a status, a content type and either a byte stream or a buffered body.
type ProviderResponse struct {
	StatusCode  int
	ContentType string
	Body        io.ReadCloser // nil when no byte stream is available
	Buffered    []byte
}

// OK reports whether the status is a 2xx.
func (r *ProviderResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Close releases the underlying stream, if any.
func (r *ProviderResponse) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Message roles shown in a session history.
const (
	SpeakerUser  = "user"
	SpeakerModel = "model"
)

// Message is one turn of a session history.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds a knowledge base and the conversation about it.
type Session struct {
	ID            string    `json:"id"`
	KnowledgeBase string    `json:"-"`
	Messages      []Message `json:"messages"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
