package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/hotlap/internal/seedlaps"
	"github.com/okian/hotlap/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := seedlaps.ParseFlags()
	stats, err := seedlaps.Run(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "seeding aborted", logger.Error(err))
		os.Exit(1)
	}
	if stats.Failures > 0 {
		os.Exit(1)
	}
}
