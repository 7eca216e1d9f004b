package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/console"
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "assistant")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := console.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", apperr.Describe(err))
		os.Exit(1)
	}
}
