// Package parser provides document parsing adapters.
// The PDF parser delegates extraction to an HTTP text-extraction service.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// DefaultServiceURL is used when no service URL is configured.
const DefaultServiceURL = "http://localhost:8081"

// PDFServiceParser implements ports.DocumentParser against a PDF service.
// The service accepts raw bytes on POST /parse and answers with JSON.
type PDFServiceParser struct {
	serviceURL string
	client     *http.Client
}

// NewPDFServiceParser creates a parser that calls the service at serviceURL.
func NewPDFServiceParser(serviceURL string) *PDFServiceParser {
	if serviceURL == "" {
		serviceURL = DefaultServiceURL
	}
	return &PDFServiceParser{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// parseResponse is the service response. Pages, when present, win over Text
// and are joined with blank lines.
type parseResponse struct {
	Text  string   `json:"text"`
	Pages []string `json:"pages,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Parse extracts text from PDF bytes.
func (p *PDFServiceParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("X-Filename", filename)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling PDF service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("PDF parse error: %s", result.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PDF service returned status %d", resp.StatusCode)
	}

	if len(result.Pages) > 0 {
		return strings.Join(result.Pages, "\n\n"), nil
	}
	return result.Text, nil
}

// SupportedFormats returns formats this parser handles.
func (p *PDFServiceParser) SupportedFormats() []string {
	return []string{"pdf"}
}

// Healthy checks if the service is reachable.
func (p *PDFServiceParser) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serviceURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

var _ ports.DocumentParser = (*PDFServiceParser)(nil)
