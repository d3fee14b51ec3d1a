// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// IngestUseCase turns uploaded or watched files into a knowledge base text.
type IngestUseCase struct {
	loader ports.DocumentLoader
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(loader ports.DocumentLoader) *IngestUseCase {
	return &IngestUseCase{loader: loader}
}

// BuildKnowledgeBase extracts every source and joins the texts with blank
// lines. When nothing readable is found the empty knowledge base is returned
// together with an EMPTY_INPUT advisory.
func (uc *IngestUseCase) BuildKnowledgeBase(ctx context.Context, sources []entities.Source) (string, error) {
	texts := make([]string, 0, len(sources))
	for i, src := range sources {
		text, err := uc.loader.Extract(ctx, src)
		if err != nil {
			return "", apperr.E(apperr.CodeInvalidArgument, "IngestUseCase.BuildKnowledgeBase",
				"Ocorreu um erro inesperado ao carregar os arquivos.",
				fmt.Errorf("extracting source %d (%s): %w", i, src.Name, err))
		}
		texts = append(texts, text)
	}
	return combine(texts)
}

// LoadDir builds a knowledge base from every supported file in dir, in name order.
func (uc *IngestUseCase) LoadDir(ctx context.Context, dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading documents dir: %w", err)
	}

	supported := make(map[string]bool)
	for _, ext := range uc.loader.SupportedExtensions() {
		supported[ext] = true
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !supported[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	texts := make([]string, 0, len(paths))
	for _, p := range paths {
		doc, err := uc.loader.Load(ctx, p)
		if err != nil {
			return "", fmt.Errorf("loading %s: %w", p, err)
		}
		texts = append(texts, doc.Content)
	}
	return combine(texts)
}

func combine(texts []string) (string, error) {
	var sb strings.Builder
	for _, t := range texts {
		sb.WriteString(strings.TrimSpace(t))
		sb.WriteString("\n\n")
	}
	kb := strings.TrimSpace(sb.String())
	if kb == "" {
		return "", apperr.E(apperr.CodeEmptyInput, "IngestUseCase", apperr.MsgEmptyInput, nil)
	}
	return kb, nil
}
