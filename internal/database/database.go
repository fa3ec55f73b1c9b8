// Package database provides PostgreSQL connection management using pgx and
// schema migrations for both supported stores.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	connectAttempts = 5
	connectDelay    = time.Second
	connectMaxDelay = 4 * time.Second
)

// Config holds PostgreSQL connection settings read from environment variables.
type Config struct {
	Host        string        `env:"DB_HOST"         envDefault:"localhost"`
	Port        string        `env:"DB_PORT"         envDefault:"5432"`
	User        string        `env:"DB_USER"         envDefault:"postgres"`
	Password    string        `env:"DB_PASSWORD"     envDefault:"postgres"`
	DBName      string        `env:"DB_NAME"         envDefault:"eventbooking"`
	SSLMode     string        `env:"DB_SSLMODE"      envDefault:"disable"`
	MaxConns    int32         `env:"DB_MAX_CONNS"    envDefault:"20"`
	MinConns    int32         `env:"DB_MIN_CONNS"    envDefault:"2"`
	LockTimeout time.Duration `env:"DB_LOCK_TIMEOUT" envDefault:"5s"`
}

// DSN builds a libpq-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// NewPool creates and validates a pgxpool connection pool.
// It retries a few times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg Config, log *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var (
		pool    *pgxpool.Pool
		attempt int
	)
	retrier := retry.NewRetrier(connectAttempts, connectDelay, connectMaxDelay)
	err = retrier.RunContext(ctx, func(ctx context.Context) error {
		attempt++
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = p.Ping(ctx); err == nil {
				pool = p
				return nil
			}
			p.Close()
		}
		log.Warn("db connect attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("of", connectAttempts),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			return retry.Stop(err)
		}
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return pool, nil
}
