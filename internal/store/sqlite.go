package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"MarketETL/internal/model"
)

// MemoryPath opens an ephemeral database that lives as long as the backend.
const MemoryPath = ":memory:"

// SQLiteBackend keeps market data in SQLite. With MemoryPath it is the
// ephemeral test backend; with a file path it is a local durable store.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if path == MemoryPath {
		// Every new connection to :memory: is a fresh database; pin the pool.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS market_data (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT    NOT NULL,
			date   TEXT    NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume INTEGER NOT NULL,
			CONSTRAINT uq_market_data_symbol_date UNIQUE (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_data_date ON market_data(date)`,
	}
	for _, s := range stmts {
		if _, err := b.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (b *SQLiteBackend) InsertIgnore(ctx context.Context, rows []model.MarketDataRow) (int, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO market_data
		(symbol, date, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT (symbol, date) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range rows {
		res, err := stmt.ExecContext(ctx,
			r.Symbol, r.Date.Format(model.DateLayout),
			r.Open, r.High, r.Low, r.Close, r.Volume,
		)
		if err != nil {
			return 0, fmt.Errorf("insert %s %s: %w", r.Symbol, r.Date.Format(model.DateLayout), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (b *SQLiteBackend) All(ctx context.Context) ([]model.MarketDataRow, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT symbol, date, open, high, low, close, volume
		FROM market_data ORDER BY symbol, date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MarketDataRow
	for rows.Next() {
		var (
			r    model.MarketDataRow
			date string
		)
		if err := rows.Scan(&r.Symbol, &date, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume); err != nil {
			return nil, err
		}
		if r.Date, err = time.Parse(model.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (b *SQLiteBackend) Count(ctx context.Context) (int, error) {
	var n int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_data`).Scan(&n)
	return n, err
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
