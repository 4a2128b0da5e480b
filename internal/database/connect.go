package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/bitcoin-explorer/internal/config"
)

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx := ctx
	if cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.QueryTimeout)
		defer cancel()
	}

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// ConnectWithRetry blocks until Connect succeeds, sleeping cfg.ConnectRetryDelay
// between attempts. It only gives up when ctx is done.
func ConnectWithRetry(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, _, err := Retry(ctx, cfg.ConnectRetryDelay, logger, func(ctx context.Context) (*pgxpool.Pool, error) {
		return Connect(ctx, cfg)
	})
	return pool, err
}

// Retry calls fn until it succeeds, waiting a fixed delay between attempts.
// It returns the result, the number of attempts made, and ctx.Err() if ctx
// ends before fn succeeds.
func Retry[T any](ctx context.Context, delay time.Duration, logger *slog.Logger, fn func(context.Context) (T, error)) (T, int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("database connected after retry", "attempts", attempt)
			}
			return result, attempt, nil
		}

		logger.Warn("failed to connect to database, retrying",
			"attempt", attempt,
			"delay", delay,
			"err", err,
		)

		select {
		case <-ctx.Done():
			return zero, attempt, ctx.Err()
		case <-time.After(delay):
		}
	}
}
