// Package database provides PostgreSQL connection and schema management.
package database

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/yelinaung/invoiceflow/internal/logger"
)

// DefaultConnectAttempts is how many pings Connect makes before giving up.
const DefaultConnectAttempts = 5

// Connect establishes a traced connection pool to the PostgreSQL database,
// retrying the initial ping with exponential backoff.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	return ConnectWithRetry(ctx, databaseURL, DefaultConnectAttempts)
}

// ConnectWithRetry is Connect with an explicit number of ping attempts.
func ConnectWithRetry(ctx context.Context, databaseURL string, attempts uint) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	cfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			logger.Log.Warn().Err(err).Int("attempt", attempt).Msg("Database ping failed")
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(max(attempts, 1)),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}
