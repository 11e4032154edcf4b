// Package collector fetches raw daily bars per symbol and lands them in the
// bronze layer untouched.
package collector

import (
	"context"
	"fmt"
	"os"
	"time"

	"MarketETL/internal/bronze"
	"MarketETL/internal/logging"
	"MarketETL/internal/model"
	"MarketETL/internal/monitoring"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Batches map[string]model.RawBatch // keyed by symbol
	Errors  map[string]error
	Calls   []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, symbol string, _, _ time.Time) (model.RawBatch, error) {
	m.Calls = append(m.Calls, symbol)
	if err := m.Errors[symbol]; err != nil {
		return model.RawBatch{}, err
	}
	b := m.Batches[symbol]
	if b.Source == "" {
		b.Source = m.Name() + ":" + symbol
	}
	return b, nil
}

// Ingester writes one bronze file per symbol for a run.
type Ingester struct {
	Fetcher  Fetcher
	Dir      string
	Logger   logging.Logger
	Reporter monitoring.Reporter
}

// NewIngester creates a new Ingester writing into dir.
func NewIngester(fetcher Fetcher, dir string, logger logging.Logger, reporter monitoring.Reporter) *Ingester {
	return &Ingester{
		Fetcher:  fetcher,
		Dir:      dir,
		Logger:   logging.OrNop(logger),
		Reporter: monitoring.OrNop(reporter),
	}
}

// Ingest fetches each symbol in order and writes bronze/{SYMBOL}_{runID}.csv.
// A failing or empty symbol is logged and skipped. Only failing to create
// the bronze directory is returned.
func (in *Ingester) Ingest(ctx context.Context, symbols []string, start, end time.Time, runID string) ([]string, error) {
	if err := os.MkdirAll(in.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bronze dir: %w", err)
	}

	var paths []string
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			in.Logger.Warn("ingest cancelled", "remaining_symbol", symbol, "error", err)
			break
		}

		batch, err := in.Fetcher.Fetch(ctx, symbol, start, end)
		if err != nil {
			in.Logger.Error("fetch failed", "symbol", symbol, "provider", in.Fetcher.Name(), "error", err)
			in.Reporter.CaptureError(err, map[string]string{"stage": "bronze", "symbol": symbol})
			continue
		}
		if batch.Empty() {
			in.Logger.Warn("no data returned", "symbol", symbol, "provider", in.Fetcher.Name())
			continue
		}

		path, err := bronze.Write(in.Dir, symbol, runID, batch)
		if err != nil {
			in.Logger.Error("bronze write failed", "symbol", symbol, "error", err)
			in.Reporter.CaptureError(err, map[string]string{"stage": "bronze", "symbol": symbol})
			continue
		}
		in.Logger.Info("bronze file written", "symbol", symbol, "file", path, "rows", batch.Len())
		paths = append(paths, path)
	}
	return paths, nil
}
