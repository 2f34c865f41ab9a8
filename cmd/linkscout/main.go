package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/linkscout/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// A second interrupt kills the process instead of waiting for shutdown.
		<-ctx.Done()
		stop()
	}()

	cli.ExecuteContext(ctx)
}
