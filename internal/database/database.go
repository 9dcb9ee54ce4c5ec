// Package database provides PostgreSQL connection management.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection configuration.
type Config struct {
	// URL is the Postgres connection URL (as handed out by managed
	// providers such as Supabase).
	URL string

	MaxOpenConns    int
	MinIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a Config for the given connection URL with pool
// settings sized for a small-business workload.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		MaxOpenConns:    5,
		MinIdleConns:    1,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Connect creates a new database connection pool.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse connection url: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // bounded by config
	}
	if cfg.MinIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MinIdleConns) //nolint:gosec // bounded by config
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
