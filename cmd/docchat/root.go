package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/docchat-go/internal/infrastructure/config"
	"github.com/0xcro3dile/docchat-go/internal/infrastructure/logger"
)

// app carries what every command needs once flags are parsed.
type app struct {
	envFiles []string
	logLevel string

	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "docchat",
		Short: "Chat with your documents",
		Long: `docchat answers questions about a set of documents. It keeps the
paragraphs most relevant to each question and asks an OpenAI-compatible model.

Example usage:
  docchat serve                              # proxy, health and session API
  docchat ask -f manual.pdf "como configuro?" # one question from the terminal
  docchat excerpt -f notes.md "dogs"          # show the context a question sends`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.LoadFiles(a.envFiles...)
			level := a.cfg.LogLevel
			if a.logLevel != "" {
				level = a.logLevel
			}
			a.log = logger.NewWithOutput(level, cmd.ErrOrStderr())
			return nil
		},
	}

	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", config.DefaultFiles,
		"dotenv files to load, later files win")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(newServeCmd(a), newAskCmd(a), newExcerptCmd(a))
	return root
}
