package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvclean/internal/cli"
	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Stdout is the response channel, so nothing but the envelope may go there.
	logging.Setup(os.Stderr, "info", "text")

	// Load .env file if it exists; real environment variables take precedence
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	limiter := core.NewLimiter(cfg.Processing.MaxConcurrent, cfg.Processing.MaxWaitTime)
	service := core.NewService(limiter, cfg.Processing.MaxInputBytes)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.Init(cfg, service, version)
	code := cli.Execute(ctx)

	stop()
	os.Exit(code)
}
