package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/noah-isme/timetable-engine/pkg/cpsat/gini"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
