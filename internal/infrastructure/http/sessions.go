package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
)

// sessionResponse is a session plus the size of its knowledge base and an
// optional advisory about the upload.
type sessionResponse struct {
	*entities.Session
	KnowledgeBaseChars int    `json:"knowledge_base_chars"`
	Warning            string `json:"warning,omitempty"`
}

func newSessionResponse(s *entities.Session) sessionResponse {
	return sessionResponse{Session: s, KnowledgeBaseChars: len([]rune(s.KnowledgeBase))}
}

type sendMessageRequest struct {
	Question string `json:"question"`
}

// handleCreateSession builds a session from multipart "files".
func (s *Server) handleCreateSession(c *gin.Context) {
	const op = "Server.handleCreateSession"

	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, apperr.E(apperr.CodeInvalidArgument, op, "Envie os arquivos no campo \"files\".", err))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		writeError(c, apperr.E(apperr.CodeInvalidArgument, op, "Nenhum arquivo enviado.", nil))
		return
	}

	limit := s.opts.UploadLimit
	sources := make([]entities.Source, 0, len(files))
	for _, fh := range files {
		if fh.Size > limit {
			writeError(c, tooLarge(op, fh.Filename, limit))
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeError(c, apperr.E(apperr.CodeInvalidArgument, op, "Não foi possível ler "+fh.Filename+".", err))
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		f.Close()
		if err != nil {
			writeError(c, apperr.E(apperr.CodeInvalidArgument, op, "Não foi possível ler "+fh.Filename+".", err))
			return
		}
		if int64(len(data)) > limit {
			writeError(c, tooLarge(op, fh.Filename, limit))
			return
		}
		sources = append(sources, entities.Source{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	sess, err := s.chat.Open(c.Request.Context(), sources)
	if sess == nil {
		writeError(c, err)
		return
	}
	resp := newSessionResponse(sess)
	if err != nil {
		resp.Warning = apperr.Message(err)
	}
	c.JSON(http.StatusCreated, resp)
}

func tooLarge(op, name string, limit int64) error {
	return apperr.E(apperr.CodeInvalidArgument, op,
		fmt.Sprintf("O arquivo %s excede o limite de %d bytes.", name, limit), nil)
}

// handleSendMessage answers a question as an event stream of deltas.
// Requests rejected before the answer starts get a plain JSON error.
func (s *Server) handleSendMessage(c *gin.Context) {
	const op = "Server.handleSendMessage"

	var body sendMessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.E(apperr.CodeInvalidArgument, op, "Requisição inválida.", err))
		return
	}

	w := &sse{c: c}
	_, err := s.chat.Send(c.Request.Context(), c.Param("id"), body.Question, func(delta string) {
		w.send(gin.H{"content": delta})
	})
	if err != nil {
		if !w.started && (apperr.IsCode(err, apperr.CodeInvalidArgument) || apperr.IsCode(err, apperr.CodeNotFound)) {
			writeError(c, err)
			return
		}
		_ = c.Error(err)
		w.send(gin.H{"error": apperr.Message(err), "done": true})
		return
	}
	w.send(gin.H{"done": true})
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.chat.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.chat.Clear(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleExcerpt shows what context a question would send: the query terms,
// the ranked blocks and the packed excerpt.
func (s *Server) handleExcerpt(c *gin.Context) {
	const op = "Server.handleExcerpt"

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		writeError(c, apperr.E(apperr.CodeInvalidArgument, op, "Informe a pergunta no parâmetro q.", nil))
		return
	}
	sess, err := s.chat.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	excerpt, ranked := s.ask.Excerpt(sess.KnowledgeBase, q)
	c.JSON(http.StatusOK, gin.H{
		"terms":   s.ask.QueryTerms(q).Sorted(),
		"blocks":  ranked,
		"excerpt": excerpt,
	})
}
