package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/docchat-go/internal/adapters/transport"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
	"github.com/0xcro3dile/docchat-go/internal/domain/usecases"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		files  []string
		server string
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about local files",
		Long: `Ask builds a knowledge base from the given files and streams the answer
to stdout. With --server the request goes through a running docchat proxy;
otherwise the provider is called directly with OPENAI_API_KEY.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kb, err := knowledgeBase(ctx, a, files)
			if err != nil {
				return err
			}

			var t ports.ChatTransport
			model := ""
			if server != "" {
				t = transport.NewHTTPTransport(server, nil)
			} else {
				provider := newProvider(a.cfg)
				t = transport.NewProviderTransport(provider, a.cfg.Stream)
				model = provider.Model()
			}

			out := cmd.OutOrStdout()
			ask := usecases.NewAskUseCase(t, nil, model)
			err = ask.AskStream(ctx, kb, strings.Join(args, " "), func(delta string) {
				fmt.Fprint(out, delta)
			})
			fmt.Fprintln(out)
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "document to ask about (repeatable)")
	cmd.Flags().StringVar(&server, "server", "", "base URL of a docchat server to proxy through")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// knowledgeBase reads paths and joins their text. An empty result is an error
// here since there is nothing to ask about.
func knowledgeBase(ctx context.Context, a *app, paths []string) (string, error) {
	sources := make([]entities.Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", p, err)
		}
		sources = append(sources, entities.Source{Name: filepath.Base(p), Data: data})
	}

	return usecases.NewIngestUseCase(newLoader(a.cfg)).BuildKnowledgeBase(ctx, sources)
}
