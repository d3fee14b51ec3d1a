package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/docchat-go/internal/domain/usecases"
)

func newExcerptCmd(a *app) *cobra.Command {
	var (
		files  []string
		ranked bool
	)

	cmd := &cobra.Command{
		Use:   "excerpt [question]",
		Short: "Print the context a question would send",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := knowledgeBase(cmd.Context(), a, files)
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			ask := usecases.NewAskUseCase(nil, nil, "")
			excerpt, blocks := ask.Excerpt(kb, question)

			out := cmd.OutOrStdout()
			if ranked {
				fmt.Fprintf(out, "terms: %s\n", strings.Join(ask.QueryTerms(question).Sorted(), ", "))
				for _, b := range blocks {
					fmt.Fprintf(out, "#%d score=%d %s\n", b.Index, b.Score, preview(b.Text, 60))
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, excerpt)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "document to select from (repeatable)")
	cmd.Flags().BoolVar(&ranked, "ranked", false, "also print query terms and block scores")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// preview returns the first line of s cut to n runes.
func preview(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
