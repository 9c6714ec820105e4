package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/pagemeta-crawler/internal/app"
	"github.com/samvad-hq/pagemeta-crawler/internal/config"
	"github.com/samvad-hq/pagemeta-crawler/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crawler failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("crawler starting", "config", cfg)

	// Cancellation only shortens in-flight fetches; the run still waits for
	// every queued URL to be acknowledged.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.NewCrawler(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize crawler", "error", err.Error())
		return err
	}

	if _, err := c.Run(ctx); err != nil {
		return fmt.Errorf("crawler run: %w", err)
	}
	return nil
}
