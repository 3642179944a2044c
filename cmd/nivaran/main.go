package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/praja-labs/nivaran/internal/api"
	"github.com/praja-labs/nivaran/internal/config"
	"github.com/praja-labs/nivaran/internal/engine"
	"github.com/praja-labs/nivaran/internal/events"
	"github.com/praja-labs/nivaran/internal/lang"
	"github.com/praja-labs/nivaran/internal/openai"
	"github.com/praja-labs/nivaran/internal/session"
	"github.com/praja-labs/nivaran/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("nivaran starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Model gateway
	if cfg.OpenAIAPIKey == "" {
		slog.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}
	llm := openai.NewClient(cfg.OpenAIAPIKey)
	slog.Info("model client ready", "chat_model", cfg.ChatModel)

	// Submission store (optional: without it the assistant still converses,
	// submissions just are not recorded)
	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, submissions will not be recorded")
	}

	// Event publisher (optional)
	var pub *events.Publisher
	if cfg.NatsURL != "" {
		var err error
		pub, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set, running without event publishing")
	}

	detector := lang.NewDetector(llm, cfg.LangDetectModel, slog.Default())
	eng := engine.New(llm, detector, engine.Options{
		ChatModel:      cfg.ChatModel,
		Temperature:    cfg.Temperature,
		MaxReplyTokens: cfg.MaxReplyTokens,
	}, slog.Default())

	host := session.NewHost(eng, cfg.MaxHistoryTurns, cfg.SessionTTL, slog.Default())
	go host.Sweep(ctx)

	srv := api.NewServer(host, llm, db, pub, api.Options{
		Port:            cfg.Port,
		TranscribeModel: cfg.TranscribeModel,
		TTSModel:        cfg.TTSModel,
	}, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	if err := pub.Publish("nivaran.service.registered", map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("nivaran ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("nivaran stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
