// Package usecases - ask.go answers a question about a document.
package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
	"github.com/0xcro3dile/docchat-go/internal/domain/selector"
	"github.com/0xcro3dile/docchat-go/internal/domain/stream"
)

// SystemInstruction grounds the model in the supplied context.
const SystemInstruction = "Você é um assistente útil que responde com base no contexto fornecido."

// AskUseCase selects an excerpt, sends it with the question and reads the answer.
type AskUseCase struct {
	transport ports.ChatTransport
	selector  *selector.Selector
	model     string
}

// NewAskUseCase creates an AskUseCase. A nil selector uses the defaults; an
// empty model lets the transport decide.
func NewAskUseCase(transport ports.ChatTransport, sel *selector.Selector, model string) *AskUseCase {
	if sel == nil {
		sel = selector.New()
	}
	return &AskUseCase{
		transport: transport,
		selector:  sel,
		model:     model,
	}
}

// BuildRequest assembles the chat request for question grounded in document.
func (uc *AskUseCase) BuildRequest(document, question string) entities.ChatRequest {
	excerpt := uc.selector.Select(document, question)

	var sb strings.Builder
	sb.WriteString("Contexto:\n")
	sb.WriteString(excerpt)
	sb.WriteString("\n\nPergunta: ")
	sb.WriteString(question)

	return entities.ChatRequest{
		Model: uc.model,
		Messages: []entities.ChatMessage{
			{Role: entities.RoleSystem, Content: SystemInstruction},
			{Role: entities.RoleUser, Content: sb.String()},
		},
	}
}

// AskStream answers question, handing each fragment to onDelta as it arrives.
func (uc *AskUseCase) AskStream(ctx context.Context, document, question string, onDelta stream.DeltaFunc) error {
	resp, err := uc.transport.Send(ctx, uc.BuildRequest(document, question))
	if err != nil {
		return fmt.Errorf("sending chat request: %w", err)
	}
	defer resp.Close()

	return stream.Consume(ctx, resp, onDelta)
}

// Ask answers question and returns the whole text.
func (uc *AskUseCase) Ask(ctx context.Context, document, question string) (string, error) {
	var sb strings.Builder
	err := uc.AskStream(ctx, document, question, func(delta string) {
		sb.WriteString(delta)
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// QueryTerms returns the terms the selector extracts from question.
func (uc *AskUseCase) QueryTerms(question string) selector.TermSet {
	return uc.selector.QueryTerms(question)
}

// Excerpt exposes the selection used for question, for diagnostics.
func (uc *AskUseCase) Excerpt(document, question string) (string, []entities.ScoredBlock) {
	return uc.selector.Select(document, question), uc.selector.Rank(document, question)
}
