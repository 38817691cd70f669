package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"case-service/internal/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, client.UserMessage(err))
		stop()
		os.Exit(1)
	}
}
