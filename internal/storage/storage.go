// Package storage opens the configured Event Store backend.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/config"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/database"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/repository"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/repository/sqlite"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/service"
)

// Open connects to the store named by cfg.Store.Driver, applies migrations,
// and returns the stores with a function that releases them.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.Stores, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		return openSQLite(ctx, cfg.Store.SQLitePath, log)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.DB, log)
	default:
		return service.Stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openPostgres(ctx context.Context, cfg database.Config, log *zap.Logger) (service.Stores, func(), error) {
	pool, err := database.NewPool(ctx, cfg, log)
	if err != nil {
		return service.Stores{}, nil, err
	}
	if err := database.MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		return service.Stores{}, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	log.Info("connected to postgres",
		zap.String("host", cfg.Host),
		zap.String("db", cfg.DBName),
	)

	return service.Stores{
		Events:        repository.NewEventRepository(pool, cfg.LockTimeout),
		Registrations: repository.NewRegistrationRepository(pool, cfg.LockTimeout),
		Reviews:       repository.NewReviewRepository(pool, cfg.LockTimeout),
		Users:         repository.NewUserRepository(pool),
	}, pool.Close, nil
}

func openSQLite(ctx context.Context, path string, log *zap.Logger) (service.Stores, func(), error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return service.Stores{}, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return service.Stores{}, nil, err
	}
	log.Info("opened sqlite store", zap.String("path", path))

	closeFn := func() {
		if err := store.Close(); err != nil {
			log.Warn("close sqlite store", zap.Error(err))
		}
	}
	return service.Stores{
		Events:        store.Events(),
		Registrations: store.Registrations(),
		Reviews:       store.Reviews(),
		Users:         store.Users(),
	}, closeFn, nil
}
