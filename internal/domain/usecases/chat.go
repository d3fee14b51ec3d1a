// Package usecases - chat.go keeps per-session knowledge bases and histories.
package usecases

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
	"github.com/0xcro3dile/docchat-go/internal/domain/stream"
)

// Greeting is the first model message of a new session.
const Greeting = "Base de conhecimento carregada com sucesso! Sobre o que você gostaria de perguntar?"

// ChatUseCase runs question/answer turns against a session's knowledge base.
type ChatUseCase struct {
	store  ports.SessionStore
	ingest *IngestUseCase
	ask    *AskUseCase
	now    func() time.Time

	mu    sync.Mutex
	turns map[string]*turn // sessionID -> turn state, while held or awaited
}

// turn serialises the turns of one session. refs, cancel and cleared are
// guarded by ChatUseCase.mu.
type turn struct {
	mu      sync.Mutex
	refs    int
	cancel  context.CancelFunc // set while an answer is streaming
	cleared bool               // session deleted during the current turn
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
func NewChatUseCase(store ports.SessionStore, ingest *IngestUseCase, ask *AskUseCase) *ChatUseCase {
	return &ChatUseCase{
		store:  store,
		ingest: ingest,
		ask:    ask,
		now:    time.Now,
		turns:  make(map[string]*turn),
	}
}

// Open creates a session from uploaded sources. An EMPTY_INPUT advisory is
// returned alongside the session when nothing readable was found.
func (uc *ChatUseCase) Open(ctx context.Context, sources []entities.Source) (*entities.Session, error) {
	kb, err := uc.ingest.BuildKnowledgeBase(ctx, sources)
	if err != nil && !apperr.IsCode(err, apperr.CodeEmptyInput) {
		return nil, err
	}
	s, saveErr := uc.Load(ctx, uuid.NewString(), kb)
	if saveErr != nil {
		return nil, saveErr
	}
	return s, err
}

// Load replaces the knowledge base of session id, creating it if needed, and
// resets its history to the greeting.
func (uc *ChatUseCase) Load(ctx context.Context, id, knowledgeBase string) (*entities.Session, error) {
	t := uc.acquire(id)
	defer uc.release(id, t)

	now := uc.now()
	s := &entities.Session{
		ID:            id,
		KnowledgeBase: knowledgeBase,
		Messages:      []entities.Message{uc.message(entities.SpeakerModel, Greeting)},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.store.Save(ctx, s); err != nil {
		return nil, apperr.E(apperr.CodeInternal, "ChatUseCase.Load", "", err)
	}
	return s, nil
}

// Get returns a session.
func (uc *ChatUseCase) Get(ctx context.Context, id string) (*entities.Session, error) {
	return uc.store.Get(ctx, id)
}

// Clear forgets a session and its knowledge base. An answer streaming in the
// session stops at its next read and is not recorded.
func (uc *ChatUseCase) Clear(ctx context.Context, id string) error {
	uc.mu.Lock()
	if t, ok := uc.turns[id]; ok {
		t.cleared = true
		if t.cancel != nil {
			t.cancel()
		}
	}
	uc.mu.Unlock()

	return uc.store.Delete(ctx, id)
}

// Send asks question in session id. Deltas are appended to the answer and
// forwarded to onDelta. On failure the history records an apology with the
// error message and the error is returned. A turn abandoned by the caller
// keeps only the partial answer. Turns of one session run one at a time.
func (uc *ChatUseCase) Send(ctx context.Context, id, question string, onDelta stream.DeltaFunc) (*entities.Message, error) {
	const op = "ChatUseCase.Send"

	if strings.TrimSpace(question) == "" {
		return nil, apperr.E(apperr.CodeInvalidArgument, op, "A pergunta não pode estar vazia.", nil)
	}

	t := uc.acquire(id)
	defer uc.release(id, t)

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	uc.mu.Lock()
	t.cleared = false
	t.cancel = cancel
	uc.mu.Unlock()
	defer func() {
		uc.mu.Lock()
		t.cancel = nil
		uc.mu.Unlock()
	}()

	s, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.KnowledgeBase == "" {
		return nil, apperr.E(apperr.CodeInvalidArgument, op, "Carregue uma base de conhecimento antes de perguntar.", nil)
	}

	s.Messages = append(s.Messages, uc.message(entities.SpeakerUser, question))
	if err := uc.persist(ctx, t, s); err != nil {
		return nil, err
	}

	var answer strings.Builder
	askErr := uc.ask.AskStream(turnCtx, s.KnowledgeBase, question, func(delta string) {
		if turnCtx.Err() != nil {
			return
		}
		answer.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	})

	if uc.isCleared(t) {
		return nil, notFound(op, id)
	}

	// The caller may have gone away; history is still recorded.
	saveCtx := context.WithoutCancel(ctx)

	if answer.Len() > 0 || askErr == nil {
		s.Messages = append(s.Messages, uc.message(entities.SpeakerModel, answer.String()))
	}
	if askErr != nil {
		if !errors.Is(askErr, context.Canceled) {
			s.Messages = append(s.Messages, uc.message(entities.SpeakerModel,
				"Desculpe, encontrei um erro: "+apperr.Message(askErr)))
		}
		if err := uc.persist(saveCtx, t, s); err != nil {
			return nil, err
		}
		return nil, askErr
	}

	if err := uc.persist(saveCtx, t, s); err != nil {
		return nil, err
	}
	reply := s.Messages[len(s.Messages)-1]
	return &reply, nil
}

// persist saves s unless the session was cleared during the turn. A Clear
// that races the write is honoured by deleting again.
func (uc *ChatUseCase) persist(ctx context.Context, t *turn, s *entities.Session) error {
	const op = "ChatUseCase.Send"

	if uc.isCleared(t) {
		return notFound(op, s.ID)
	}
	if err := uc.save(ctx, s); err != nil {
		return err
	}
	if uc.isCleared(t) {
		if err := uc.store.Delete(ctx, s.ID); err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
			return apperr.E(apperr.CodeInternal, op, "", err)
		}
		return notFound(op, s.ID)
	}
	return nil
}

func (uc *ChatUseCase) isCleared(t *turn) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return t.cleared
}

func notFound(op, id string) error {
	return apperr.E(apperr.CodeNotFound, op, "Sessão não encontrada: "+id, nil)
}

func (uc *ChatUseCase) save(ctx context.Context, s *entities.Session) error {
	s.UpdatedAt = uc.now()
	if err := uc.store.Save(ctx, s); err != nil {
		return apperr.E(apperr.CodeInternal, "ChatUseCase.save", "", err)
	}
	return nil
}

func (uc *ChatUseCase) message(role, text string) entities.Message {
	return entities.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Sources:   []string{},
		CreatedAt: uc.now(),
	}
}

// acquire takes the turn lock of session id. The entry stays in the map
// until its last holder or waiter releases it.
func (uc *ChatUseCase) acquire(id string) *turn {
	uc.mu.Lock()
	t, ok := uc.turns[id]
	if !ok {
		t = &turn{}
		uc.turns[id] = t
	}
	t.refs++
	uc.mu.Unlock()

	t.mu.Lock()
	return t
}

func (uc *ChatUseCase) release(id string, t *turn) {
	t.mu.Unlock()

	uc.mu.Lock()
	defer uc.mu.Unlock()
	t.refs--
	if t.refs == 0 {
		delete(uc.turns, id)
	}
}
