// Package bronze reads and writes raw ingest files: one CSV per (symbol, run)
// with the provider's own column names.
package bronze

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"MarketETL/internal/model"
)

// FileName returns the bronze file name for a symbol in a run.
func FileName(symbol, runID string) string {
	return fmt.Sprintf("%s_%s.csv", symbol, runID)
}

// Write stores batch under dir and returns the file path. Columns come from
// batch.Columns, or model.BronzeColumns when the batch has none.
func Write(dir, symbol, runID string, batch model.RawBatch) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create bronze dir: %w", err)
	}
	cols := batch.Columns
	if len(cols) == 0 {
		cols = model.BronzeColumns
	}

	path := filepath.Join(dir, FileName(symbol, runID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create bronze file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return "", fmt.Errorf("write bronze header: %w", err)
	}
	row := make([]string, len(cols))
	for _, rec := range batch.Records {
		for i, c := range cols {
			row[i] = rec[c]
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write bronze row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush bronze file: %w", err)
	}
	return path, f.Sync()
}

// List returns the names of bronze CSV files in dir, sorted. A missing dir
// yields no files.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list bronze dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read loads a bronze file into a RawBatch whose Source is the file name.
// Short rows are padded with empty values so the validator can reject them.
func Read(path string) (model.RawBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RawBatch{}, fmt.Errorf("open bronze file: %w", err)
	}
	defer f.Close()

	batch, err := Decode(f)
	if err != nil {
		return model.RawBatch{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	batch.Source = filepath.Base(path)
	return batch, nil
}

// Decode parses CSV with a header row into a RawBatch.
func Decode(r io.Reader) (model.RawBatch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return model.RawBatch{}, nil
	}
	if err != nil {
		return model.RawBatch{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	batch := model.RawBatch{Columns: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.RawBatch{}, fmt.Errorf("read row: %w", err)
		}
		rec := make(model.RawRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		batch.Records = append(batch.Records, rec)
	}
	return batch, nil
}
