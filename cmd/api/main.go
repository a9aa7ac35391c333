package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"filing_insight/pkg/app"
	"filing_insight/pkg/core/config"
	"filing_insight/pkg/core/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("FILING_INSIGHT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(ctx, cfg, logger)
	defer a.Close()

	if err := a.LoadServices(ctx); err != nil {
		logger.Fatal("failed to load company directory", zap.Error(err))
	}

	logger.Info("routes registered", zap.Strings("routes", []string{
		"GET  /api/cik",
		"POST /api/filing",
		"POST /api/ask",
		"GET  /api/config",
		"POST /api/config/switch",
		"GET  /healthz",
	}))

	if err := a.Serve(ctx); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
