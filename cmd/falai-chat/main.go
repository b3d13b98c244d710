// Command falai-chat runs the image chat backend: conversation storage,
// generation pipeline and the streaming HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	falaichat "github.com/laruss/falai-chat"
	"github.com/laruss/falai-chat/chatstore"
	"github.com/laruss/falai-chat/config"
	"github.com/laruss/falai-chat/provider/fal"
	"github.com/laruss/falai-chat/provider/gemini"
	"github.com/laruss/falai-chat/server"
	"github.com/laruss/falai-chat/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	falGen, err := fal.New(&falaichat.ProviderConfig{APIKey: cfg.FalAPIKey})
	if err != nil {
		return err
	}

	providers := []falaichat.ImageGenerator{falGen}
	if cfg.GeminiAPIKey != "" {
		geminiGen, err := gemini.NewWithAPIKey(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return err
		}
		providers = append(providers, geminiGen)
	} else {
		logger.Info("GEMINI_API_KEY not set, nano-banana-2 disabled")
	}

	manager := falaichat.NewManager(providers, falaichat.WithLogger(logger))
	defer manager.Close()

	assets, err := storage.NewLocal(cfg.StaticDir, "/static")
	if err != nil {
		return err
	}

	chats, err := chatstore.New(cfg.ChatsDir, logger)
	if err != nil {
		return err
	}

	pipeline := falaichat.NewPipeline(manager, assets, chats, logger)

	srv := server.New(server.Config{
		FrontendURL: cfg.FrontendURL,
		StaticDir:   cfg.StaticDir,
	}, pipeline, chats, manager, logger)

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
