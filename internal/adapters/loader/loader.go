// Package loader provides document loading adapters.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// extractor turns raw bytes into text.
type extractor interface {
	Extract(ctx context.Context, src entities.Source) (string, error)
}

// TextLoader loads plain text documents (.txt).
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Extract decodes the source as UTF-8, replacing invalid bytes.
func (l *TextLoader) Extract(ctx context.Context, src entities.Source) (string, error) {
	return strings.ToValidUTF8(string(src.Data), "�"), nil
}

// Load reads a text document from the given path.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	return loadWith(ctx, l, path)
}

// SupportedExtensions returns file extensions this loader handles.
func (l *TextLoader) SupportedExtensions() []string {
	return []string{".txt"}
}

// MarkdownLoader loads Markdown and strips its syntax down to prose.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a new Markdown loader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Extract decodes the source and normalizes the Markdown.
func (l *MarkdownLoader) Extract(ctx context.Context, src entities.Source) (string, error) {
	return NormalizeMarkdown(strings.ToValidUTF8(string(src.Data), "�")), nil
}

// Load reads a Markdown document from the given path.
func (l *MarkdownLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	return loadWith(ctx, l, path)
}

// SupportedExtensions returns file extensions this loader handles.
func (l *MarkdownLoader) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// markdownRules are applied in order; later rules assume earlier ones ran.
var markdownRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile("(?m)^```[\\s\\S]*?```"), ""},      // code fences
	{regexp.MustCompile(`(?m)^---[\s\S]*?---`), ""},        // front matter
	{regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`), ""},       // images
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`), "$1"},    // links keep their text
	{regexp.MustCompile(`(?m)^\s*>+\s?`), ""},              // blockquotes
	{regexp.MustCompile(`(?m)^\s*#+\s?`), ""},              // headings
	{regexp.MustCompile(`\*\*|__|\*|_`), ""},               // emphasis
	{regexp.MustCompile(`(?m)^\s*[-*+]\s+`), ""},           // list markers
	{regexp.MustCompile("\r"), ""},
}

// NormalizeMarkdown removes Markdown markup, keeping the readable text.
func NormalizeMarkdown(text string) string {
	for _, rule := range markdownRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return strings.TrimSpace(text)
}

// PDFLoader loads PDF documents through a DocumentParser.
type PDFLoader struct {
	parser ports.DocumentParser
}

// NewPDFLoader creates a PDF loader backed by parser.
func NewPDFLoader(parser ports.DocumentParser) *PDFLoader {
	return &PDFLoader{parser: parser}
}

// Extract sends the PDF bytes to the parser.
func (l *PDFLoader) Extract(ctx context.Context, src entities.Source) (string, error) {
	if len(src.Data) == 0 {
		return "", nil
	}
	text, err := l.parser.Parse(ctx, src.Data, src.Name)
	if err != nil {
		return "", fmt.Errorf("parsing pdf %s: %w", src.Name, err)
	}
	return text, nil
}

// Load reads a PDF via the parser.
func (l *PDFLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	return loadWith(ctx, l, path)
}

// SupportedExtensions returns file extensions.
func (l *PDFLoader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// MultiLoader combines multiple loaders.
type MultiLoader struct {
	loaders map[string]extractor
	text    *TextLoader
}

// NewMultiLoader creates a loader that handles text, Markdown and PDF files.
func NewMultiLoader(parser ports.DocumentParser) *MultiLoader {
	m := &MultiLoader{
		loaders: make(map[string]extractor),
		text:    NewTextLoader(),
	}
	m.register(m.text, m.text.SupportedExtensions())
	md := NewMarkdownLoader()
	m.register(md, md.SupportedExtensions())
	if parser != nil {
		pdf := NewPDFLoader(parser)
		m.register(pdf, pdf.SupportedExtensions())
	}
	return m
}

func (m *MultiLoader) register(e extractor, exts []string) {
	for _, ext := range exts {
		m.loaders[ext] = e
	}
}

// Extract dispatches on the content type first, then the file extension.
// Unknown kinds are read as plain text.
func (m *MultiLoader) Extract(ctx context.Context, src entities.Source) (string, error) {
	return m.pick(src).Extract(ctx, src)
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	return loadWith(ctx, m, path)
}

// SupportedExtensions returns all supported extensions.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (m *MultiLoader) pick(src entities.Source) extractor {
	ct := strings.ToLower(src.ContentType)
	switch {
	case strings.HasPrefix(ct, "application/pdf"):
		if e, ok := m.loaders[".pdf"]; ok {
			return e
		}
	case strings.HasPrefix(ct, "text/markdown"):
		return m.loaders[".md"]
	}
	if e, ok := m.loaders[strings.ToLower(filepath.Ext(src.Name))]; ok {
		return e
	}
	return m.text
}

func loadWith(ctx context.Context, e extractor, path string) (*entities.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	modTime := time.Now()
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}

	content, err := e.Extract(ctx, entities.Source{Name: filepath.Base(path), Data: data})
	if err != nil {
		return nil, err
	}

	return &entities.Document{
		ID:        generateDocID(path),
		Name:      filepath.Base(path),
		Path:      path,
		Content:   content,
		CreatedAt: modTime,
		UpdatedAt: time.Now(),
	}, nil
}

// generateDocID creates a deterministic ID for a document.
func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}

var _ ports.DocumentLoader = (*MultiLoader)(nil)
