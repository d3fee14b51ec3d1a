// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// ChatTransport delivers a chat request and returns the raw response for the
// stream consumer. Implementations must not interpret the body.
type ChatTransport interface {
	Send(ctx context.Context, req entities.ChatRequest) (*entities.ProviderResponse, error)
}

// ChatProvider is the upstream language model behind the proxy. It holds the
// provider credential.
type ChatProvider interface {
	// Stream opens a streaming chat completion and returns the upstream
	// response untouched (status, headers and event-stream body).
	Stream(ctx context.Context, req entities.ChatRequest) (*entities.ProviderResponse, error)

	// Complete runs a non-streaming chat completion and returns the answer.
	Complete(ctx context.Context, req entities.ChatRequest) (string, error)

	// Configured reports whether a provider credential is available.
	Configured() bool
}

// SessionStore persists sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, s *entities.Session) error
	Get(ctx context.Context, id string) (*entities.Session, error)
	Delete(ctx context.Context, id string) error
}

// DocumentLoader reads and extracts text from documents on disk.
type DocumentLoader interface {
	// Load reads a document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// Extract turns an uploaded file into text.
	Extract(ctx context.Context, src entities.Source) (string, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// DocumentParser extracts text from binary document formats (PDF).
type DocumentParser interface {
	// Parse extracts text content from document bytes.
	Parse(ctx context.Context, data []byte, filename string) (string, error)

	// SupportedFormats returns formats this parser handles (e.g., "pdf").
	SupportedFormats() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
