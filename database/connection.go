package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing: every service call runs one short transaction, and the only
// background writers are the sweeper and the scoreboard warmer, so a small
// pool is plenty.
const (
	maxConns        = 8
	minConns        = 2
	maxConnIdleTime = 5 * time.Minute
)

// DB wraps the pgx connection pool shared by all repositories
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a connection pool and verifies the database is
// reachable before returning it
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = maxConns
	config.MinConns = minConns
	config.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases all pooled connections
func (db *DB) Close() {
	db.Pool.Close()
}
