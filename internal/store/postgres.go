package store

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"MarketETL/internal/config"
	"MarketETL/internal/model"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// PostgresBackend is the durable networked backend.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pool and pings it. A failed ping is returned.
func OpenPostgres(ctx context.Context, cfg config.DBConfig) (*PostgresBackend, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.MinConns = int32(cfg.MinConns)

	return ConnectPostgres(ctx, poolCfg)
}

// ConnectPostgres opens a pool from an already parsed config.
func ConnectPostgres(ctx context.Context, poolCfg *pgxpool.Config) (*PostgresBackend, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS market_data (
			id     BIGSERIAL        PRIMARY KEY,
			symbol TEXT             NOT NULL,
			date   DATE             NOT NULL,
			open   DOUBLE PRECISION NOT NULL,
			high   DOUBLE PRECISION NOT NULL,
			low    DOUBLE PRECISION NOT NULL,
			close  DOUBLE PRECISION NOT NULL,
			volume BIGINT           NOT NULL,
			CONSTRAINT uq_market_data_symbol_date UNIQUE (symbol, date)
		)`)
	if err != nil {
		return fmt.Errorf("create market_data: %w", err)
	}
	return nil
}

// InsertIgnore queues one INSERT ... ON CONFLICT DO NOTHING per row in a
// pgx.Batch inside a transaction; a zero RowsAffected marks a conflict.
func (b *PostgresBackend) InsertIgnore(ctx context.Context, rows []model.MarketDataRow) (int, error) {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO market_data (symbol, date, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (symbol, date) DO NOTHING
		`, r.Symbol, r.Date, r.Open, r.High, r.Low, r.Close, r.Volume)
	}

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for range rows {
		ct, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, err
		}
		inserted += int(ct.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (b *PostgresBackend) All(ctx context.Context) ([]model.MarketDataRow, error) {
	rows, err := b.pool.Query(ctx, `SELECT symbol, date, open, high, low, close, volume
		FROM market_data ORDER BY symbol, date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MarketDataRow
	for rows.Next() {
		var (
			r    model.MarketDataRow
			date time.Time
		)
		if err := rows.Scan(&r.Symbol, &date, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume); err != nil {
			return nil, err
		}
		r.Date = model.CalendarDate(date)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (b *PostgresBackend) Count(ctx context.Context) (int, error) {
	var n int
	err := b.pool.QueryRow(ctx, `SELECT COUNT(*) FROM market_data`).Scan(&n)
	return n, err
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
