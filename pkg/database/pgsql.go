package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = 5 * time.Second

// PoolSettings sizes the connection pool. Zero values keep pgx defaults.
type PoolSettings struct {
	URL          string
	MaxConns     int32
	MinConns     int32
	ConnLifetime time.Duration
}

// NewPgxPool opens a pool and pings it once before returning.
func NewPgxPool(ctx context.Context, logger *slog.Logger, settings PoolSettings) (*pgxpool.Pool, error) {
	if settings.URL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	poolConfig, err := pgxpool.ParseConfig(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}
	if settings.MaxConns > 0 {
		poolConfig.MaxConns = settings.MaxConns
	}
	if settings.MinConns > 0 {
		poolConfig.MinConns = settings.MinConns
	}
	if settings.ConnLifetime > 0 {
		poolConfig.MaxConnLifetime = settings.ConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		slog.Int("max_conns", int(poolConfig.MaxConns)),
		slog.Int("min_conns", int(poolConfig.MinConns)))
	return pool, nil
}

// ClosePgxPool closes the pool if one was opened.
func ClosePgxPool(logger *slog.Logger, pool *pgxpool.Pool) {
	if pool == nil {
		return
	}
	pool.Close()
	logger.Info("PostgreSQL connection pool closed")
}
