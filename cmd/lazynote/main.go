package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/WYI1223/LazyLife/pkg/lazynote"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := lazynote.Main(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
