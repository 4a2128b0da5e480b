package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/bitcoin-explorer/internal/model"
)

const (
	createTableSQL = `
		CREATE TABLE IF NOT EXISTS blocks (
			id                BIGSERIAL PRIMARY KEY,
			peer_count        INTEGER NOT NULL CHECK (peer_count >= 0),
			medium_fee_per_kb DOUBLE PRECISION NOT NULL CHECK (medium_fee_per_kb >= 0),
			price             DOUBLE PRECISION NOT NULL CHECK (price >= 0),
			observed_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	insertSQL = `
		INSERT INTO blocks (peer_count, medium_fee_per_kb, price, observed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	recentSQL = `
		SELECT id, peer_count, medium_fee_per_kb, price, observed_at
		FROM blocks
		ORDER BY id DESC
		LIMIT $1`
)

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoreError reports a failed store operation (connection loss, constraint
// violation, or timeout).
type StoreError struct {
	Op  string // "ensure_schema", "append", "recent"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Config holds store settings.
type Config struct {
	QueryTimeout time.Duration // Bound on each statement (0 = caller's context only)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueryTimeout: 5 * time.Second,
	}
}

// Store appends and reads observations.
type Store struct {
	cfg    Config
	db     DB
	logger *slog.Logger
}

// New creates a new Store.
func New(cfg Config, db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the blocks table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return &StoreError{Op: "ensure_schema", Err: err}
	}
	return nil
}

// Append inserts one observation and returns it with its assigned ID.
func (s *Store) Append(ctx context.Context, obs model.Observation) (model.Observation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := s.db.QueryRow(ctx, insertSQL,
		obs.PeerCount,
		obs.MediumFeePerKb,
		obs.Price,
		obs.ObservedAt,
	).Scan(&obs.ID)
	if err != nil {
		return obs, &StoreError{Op: "append", Err: err}
	}

	s.logger.Debug("appended observation",
		"id", obs.ID,
		"duration", time.Since(start),
	)
	return obs, nil
}

// Recent returns up to limit observations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]model.Observation, error) {
	if limit <= 0 {
		return []model.Observation{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, recentSQL, limit)
	if err != nil {
		return nil, &StoreError{Op: "recent", Err: err}
	}
	defer rows.Close()

	result := make([]model.Observation, 0, limit)
	for rows.Next() {
		var obs model.Observation
		if err := rows.Scan(&obs.ID, &obs.PeerCount, &obs.MediumFeePerKb, &obs.Price, &obs.ObservedAt); err != nil {
			return nil, &StoreError{Op: "recent", Err: fmt.Errorf("scan row: %w", err)}
		}
		obs.ObservedAt = obs.ObservedAt.UTC()
		result = append(result, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "recent", Err: err}
	}

	return result, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}
