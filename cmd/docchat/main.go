// Package main is the entry point for the docchat server and CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+errorText(err))
		stop()
		os.Exit(1)
	}
}

// errorText prefers the user-facing message of application errors.
func errorText(err error) string {
	var ae *apperr.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
