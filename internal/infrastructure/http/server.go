// Package http provides the HTTP server infrastructure: the chat proxy, the
// health probe and the session API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
	"github.com/0xcro3dile/docchat-go/internal/domain/usecases"
)

// Options tune the server.
type Options struct {
	Addr      string
	Streaming bool    // proxy relays the provider event stream
	RateLimit float64 // requests per second per IP on chat endpoints; 0 disables
	RateBurst int

	UploadLimit int64 // bytes per uploaded file; 0 means DefaultUploadLimit
}

// DefaultUploadLimit caps each uploaded file.
const DefaultUploadLimit = 32 << 20

// Server is the HTTP server for the chat proxy and session API.
type Server struct {
	chat     *usecases.ChatUseCase
	ask      *usecases.AskUseCase
	provider ports.ChatProvider
	log      logrus.FieldLogger
	opts     Options
	limiter  *RateLimiter
	engine   *gin.Engine
}

// NewServer creates a new HTTP server.
func NewServer(
	chat *usecases.ChatUseCase,
	ask *usecases.AskUseCase,
	provider ports.ChatProvider,
	log logrus.FieldLogger,
	opts Options,
) *Server {
	s := &Server{
		chat:     chat,
		ask:      ask,
		provider: provider,
		log:      log,
		opts:     opts,
	}
	if opts.UploadLimit <= 0 {
		s.opts.UploadLimit = DefaultUploadLimit
	}
	if opts.RateLimit > 0 {
		s.limiter = NewRateLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.log), CORS())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/sessions/:id", s.handleGetSession)
	api.DELETE("/sessions/:id", s.handleDeleteSession)
	api.GET("/sessions/:id/excerpt", s.handleExcerpt)

	limited := api.Group("")
	if s.limiter != nil {
		limited.Use(s.limiter.Middleware())
	}
	limited.POST("/chat", s.handleChat)
	limited.POST("/sessions", s.handleCreateSession)
	limited.POST("/sessions/:id/messages", s.handleSendMessage)

	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 15 * time.Second,
	}

	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("shutdown")
		}
	}()

	s.log.WithField("addr", s.opts.Addr).Info("server starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth reports liveness and whether a provider key is configured.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "hasKey": s.provider.Configured()})
}

// writeError renders err as {"error": message, "code": code}.
func writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.CodeInternal
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		code = ae.Code
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": apperr.Message(err), "code": code})
}

// sse writes server-sent events, sending headers on first use.
type sse struct {
	c       *gin.Context
	started bool
}

func (w *sse) start() {
	if w.started {
		return
	}
	w.started = true
	h := w.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.c.Status(http.StatusOK)
	w.c.Writer.WriteHeaderNow()
}

func (w *sse) send(data any) {
	w.start()
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w.c.Writer, "data: %s\n\n", payload)
	w.c.Writer.Flush()
}
