// Package store persists validated market data in a single table keyed by
// (symbol, date). Inserts are insert-or-ignore: the first row written for a
// key is kept and later rows for the same key are silently skipped.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketETL/internal/config"
	"MarketETL/internal/logging"
	"MarketETL/internal/model"
)

// TableName is the market data table.
const TableName = "market_data"

// ErrUnknownDriver is returned by Open for an unsupported driver.
var ErrUnknownDriver = errors.New("store: unknown driver")

// Backend is a database engine able to hold the market data table.
type Backend interface {
	Name() string
	// EnsureSchema creates the table and its unique constraint if missing.
	EnsureSchema(ctx context.Context) error
	// InsertIgnore writes rows in one transaction, skipping rows whose
	// (symbol, date) already exists. It returns how many rows were inserted.
	InsertIgnore(ctx context.Context, rows []model.MarketDataRow) (int, error)
	// All returns every stored row ordered by symbol, date.
	All(ctx context.Context) ([]model.MarketDataRow, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// UpsertResult summarizes one Upsert call.
type UpsertResult struct {
	Inserted int
	Ignored  int
	Chunks   int
}

// Store applies chunked insert-or-ignore writes to a Backend.
type Store struct {
	backend   Backend
	batchSize int
	logger    logging.Logger
}

// New wraps backend and makes sure the schema exists. batchSize < 1 falls back
// to config.DefaultBatchSize.
func New(ctx context.Context, backend Backend, batchSize int, logger logging.Logger) (*Store, error) {
	if backend == nil {
		return nil, errors.New("store: nil backend")
	}
	if batchSize < 1 {
		batchSize = config.DefaultBatchSize
	}
	if err := backend.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{backend: backend, batchSize: batchSize, logger: logging.OrNop(logger)}, nil
}

// Open builds the backend selected by cfg and returns a ready Store. Any
// connection failure is returned; callers treat it as fatal.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (*Store, error) {
	logger = logging.OrNop(logger)

	var (
		backend Backend
		err     error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		backend, err = OpenSQLite(cfg.SQLitePath)
	case config.DriverPostgres:
		backend, err = OpenPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	s, err := New(ctx, backend, cfg.BatchSize, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}
	logger.Info("store opened", "backend", backend.Name(), "batch_size", s.batchSize)
	return s, nil
}

// Backend returns the underlying engine.
func (s *Store) Backend() Backend { return s.backend }

// BatchSize returns the chunk size.
func (s *Store) BatchSize() int { return s.batchSize }

// Upsert writes rows in chunks of BatchSize, each chunk in its own
// transaction. With no rows it returns immediately without touching the
// backend. If a chunk fails, earlier chunks stay committed.
func (s *Store) Upsert(ctx context.Context, rows []model.MarketDataRow) (UpsertResult, error) {
	var res UpsertResult
	if len(rows) == 0 {
		return res, nil
	}

	start := time.Now()
	for lo := 0; lo < len(rows); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(rows))
		chunk := rows[lo:hi]

		inserted, err := s.backend.InsertIgnore(ctx, chunk)
		if err != nil {
			s.logger.Error("store chunk failed",
				"backend", s.backend.Name(),
				"chunk", res.Chunks,
				"rows", len(chunk),
				"error", err,
			)
			return res, fmt.Errorf("upsert chunk %d: %w", res.Chunks, err)
		}
		res.Chunks++
		res.Inserted += inserted
		res.Ignored += len(chunk) - inserted
	}

	s.logger.Info("store upsert completed",
		"backend", s.backend.Name(),
		"rows", len(rows),
		"inserted", res.Inserted,
		"ignored", res.Ignored,
		"chunks", res.Chunks,
		"duration", time.Since(start),
	)
	return res, nil
}

// All returns every stored row.
func (s *Store) All(ctx context.Context) ([]model.MarketDataRow, error) {
	return s.backend.All(ctx)
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.backend.Count(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	s.logger.Info("closing store", "backend", s.backend.Name())
	return s.backend.Close()
}
