package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/docchat-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/docchat-go/internal/adapters/llm"
	"github.com/0xcro3dile/docchat-go/internal/adapters/loader"
	"github.com/0xcro3dile/docchat-go/internal/adapters/parser"
	"github.com/0xcro3dile/docchat-go/internal/adapters/sessionstore"
	"github.com/0xcro3dile/docchat-go/internal/adapters/transport"
	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
	"github.com/0xcro3dile/docchat-go/internal/domain/usecases"
	"github.com/0xcro3dile/docchat-go/internal/infrastructure/config"
	httpserver "github.com/0xcro3dile/docchat-go/internal/infrastructure/http"
)

// DefaultSessionID is the session fed from DOCS_DIR.
const DefaultSessionID = "default"

const reloadDebounce = 500 * time.Millisecond

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat proxy and session API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a.cfg, a.log)
		},
	}
}

func newProvider(cfg *config.Config) *llm.OpenAIAdapter {
	return llm.NewOpenAIAdapter(llm.Config{
		APIKey:    cfg.OpenAI.APIKey,
		BaseURL:   cfg.OpenAI.BaseURL,
		Model:     cfg.OpenAI.Model,
		MaxTokens: cfg.OpenAI.MaxTokens,
	})
}

func newLoader(cfg *config.Config) *loader.MultiLoader {
	return loader.NewMultiLoader(parser.NewPDFServiceParser(cfg.PDFServiceURL))
}

// openStore returns the SQLite store when SESSION_DB is set and the
// in-memory LRU store otherwise. The returned func releases it.
func openStore(cfg *config.Config) (ports.SessionStore, func() error, error) {
	if cfg.SessionDB != "" {
		s, err := sessionstore.NewSQLiteStore(cfg.SessionDB)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	s, err := sessionstore.NewMemoryStore(cfg.SessionCacheSize)
	if err != nil {
		return nil, nil, err
	}
	return s, func() error { return nil }, nil
}

func runServe(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	provider := newProvider(cfg)
	if cfg.HasKey() {
		log.WithFields(logrus.Fields{
			"source": cfg.OpenAI.KeySource,
			"model":  provider.Model(),
		}).Info("provider key loaded")
	} else {
		log.Warn("OPENAI_API_KEY not set; chat requests will fail until it is configured")
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.WithError(err).Warn("closing session store")
		}
	}()

	ingest := usecases.NewIngestUseCase(newLoader(cfg))
	ask := usecases.NewAskUseCase(transport.NewProviderTransport(provider, cfg.Stream), nil, provider.Model())
	chat := usecases.NewChatUseCase(store, ingest, ask)

	srv := httpserver.NewServer(chat, ask, provider, log, httpserver.Options{
		Addr:      cfg.Addr(),
		Streaming: cfg.Stream,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if cfg.DocsDir != "" {
		watcher, err := filewatcher.NewFSNotifyWatcher(nil, log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return watchDocs(gctx, cfg.DocsDir, watcher, ingest, chat, log)
		})
	}

	return g.Wait()
}

// watchDocs loads dir into the default session and reloads it whenever a
// supported file changes. Failed reloads keep the previous knowledge base.
func watchDocs(
	ctx context.Context,
	dir string,
	watcher ports.FileWatcher,
	ingest *usecases.IngestUseCase,
	chat *usecases.ChatUseCase,
	log logrus.FieldLogger,
) error {
	log = log.WithFields(logrus.Fields{"dir": dir, "session_id": DefaultSessionID})

	reload := func() {
		kb, err := ingest.LoadDir(ctx, dir)
		if err != nil && !apperr.IsCode(err, apperr.CodeEmptyInput) {
			log.WithError(err).Error("loading documents")
			return
		}
		if _, err := chat.Load(ctx, DefaultSessionID, kb); err != nil {
			log.WithError(err).Error("saving default session")
			return
		}
		log.WithField("chars", len([]rune(kb))).Info("documents loaded")
	}
	reload()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	defer watcher.Stop()

	for range filewatcher.Debounce(ctx, events, reloadDebounce) {
		if ctx.Err() != nil {
			break
		}
		reload()
	}
	return nil
}
