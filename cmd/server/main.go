package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oneboxhq/onebox-backend/internal/api"
	"github.com/oneboxhq/onebox-backend/internal/classifier"
	"github.com/oneboxhq/onebox-backend/internal/config"
	"github.com/oneboxhq/onebox-backend/internal/database"
	"github.com/oneboxhq/onebox-backend/internal/imap"
	"github.com/oneboxhq/onebox-backend/internal/notify"
	"github.com/oneboxhq/onebox-backend/internal/pipeline"
	"github.com/oneboxhq/onebox-backend/internal/store"
	"github.com/oneboxhq/onebox-backend/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// Load configuration first so the log level can honour it
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting Onebox Backend Server...")
	cfg.LogConfig(logger)

	// Database
	db, err := database.Connect(cfg.DatabaseURL, cfg.AppEnv)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", slog.Any("error", err))
		}
	}()

	emailStore := store.New(db)

	// WebSocket hub for live email push
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Notification sinks, disabled individually when unconfigured
	notifier := notify.NewFanout(logger,
		notify.NewSlackNotifier(cfg.SlackWebhookURL),
		notify.NewWebhookNotifier(cfg.WebhookURL),
	)

	indexer := pipeline.New(pipeline.Config{
		Store:      emailStore,
		Classifier: classifier.NewHTTPClassifier(cfg.ClassifierURL, logger),
		Notifier:   notifier,
		Hub:        hub,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// IMAP ingestion: one session per account
	orchestrator := imap.NewOrchestrator(imap.OrchestratorConfig{
		Store:      emailStore,
		Indexer:    indexer,
		Dialer:     imap.NewClientDialer(logger),
		Accounts:   cfg.Accounts,
		FreshStart: cfg.FreshStart,
		Folder:     cfg.IMAPFolder,
		Lookback:   time.Duration(cfg.BackfillDays) * 24 * time.Hour,
		Logger:     logger,
	})
	if err := orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mailbox sessions: %w", err)
	}

	// HTTP API
	e := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Store:          emailStore,
		Hub:            hub,
		Sessions:       orchestrator,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		AppEnv:         cfg.AppEnv,
	})

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		slog.Info("HTTP server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	// Stop mailbox sessions first so nothing writes during shutdown
	cancel()
	if err := orchestrator.Wait(); err != nil {
		slog.Warn("mailbox sessions ended with error", slog.Any("error", err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
