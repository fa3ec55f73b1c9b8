// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/auth"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/config"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/handler"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/logger"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/service"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Open the store ─────────────────────────────────────────────────
	stores, closeStores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer closeStores()

	// ── 2. Wire up layers ────────────────────────────────────────────────
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	retry := service.NewTxRetry(cfg.Retry.MaxAttempts, cfg.Retry.Delay, cfg.Retry.MaxDelay, log)

	users, err := service.NewUserService(stores.Users, stores.Events, tokens, log)
	if err != nil {
		return err
	}

	h := handler.New(handler.Services{
		Registrations: service.NewRegistrationService(stores.Registrations, retry, log),
		Reviews:       service.NewReviewService(stores.Reviews, retry, log),
		Catalog:       service.NewCatalogService(stores.Events),
		Events:        service.NewEventService(stores.Events, retry, log),
		Users:         users,
	}, log, cfg.IsDevelopment())

	// ── 3. Build the router ───────────────────────────────────────────────
	router := handler.NewRouter(h, handler.RouterConfig{
		Verifier:       tokens,
		Log:            log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
