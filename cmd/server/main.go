package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/news-digest-bot/internal/di"
	digestService "github.com/reshetovitsme/news-digest-bot/internal/modules/digest/service"
	summaryService "github.com/reshetovitsme/news-digest-bot/internal/modules/summary/service"
	"github.com/reshetovitsme/news-digest-bot/internal/shared/config"
	httpServer "github.com/reshetovitsme/news-digest-bot/internal/transport/http"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	// Raised to debug once the config says so
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	// Setup structured logging with multiple handlers using slog-multi
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	// Use Fanout to send logs to both handlers
	multiHandler := slogmulti.Fanout(textHandler, jsonHandler)
	logger := slog.New(multiHandler)
	slog.SetDefault(logger)

	// Setup dependency injection
	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsDebug() {
		level.Set(slog.LevelDebug)
	}

	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Get services from DI container
	b, err := do.Invoke[*bot.Bot](injector)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		return
	}
	scheduler := do.MustInvoke[*digestService.Scheduler](injector)
	server := do.MustInvoke[*httpServer.Server](injector)

	// Start polling updates
	go b.Start(ctx)

	// Start daily delivery
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		return
	}

	// Check the model once when AI summaries are configured
	if summary := do.MustInvoke[*summaryService.Service](injector); summary.Enabled() {
		go func() {
			if summary.Ping(ctx) {
				slog.Info("Gemini connection successful")
			} else {
				slog.Warn("Gemini connection test failed, AI summaries may fall back")
			}
		}()
	}

	// Start HTTP server
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Failed to start HTTP server", "error", err)
			cancel()
		}
	}()

	slog.Info("Application started", "port", cfg.HTTPPort, "env", cfg.AppEnv)
	slog.Info("Press Ctrl+C to stop")

	// Graceful shutdown
	<-ctx.Done()
	slog.Info("Shutting down...")
}
