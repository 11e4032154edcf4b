package silver

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"MarketETL/internal/model"
)

// FileName returns the silver file name for a bronze file. It is
// deterministic so reprocessing a bronze file overwrites its silver copy.
func FileName(bronzeName string) string {
	stem := strings.TrimSuffix(bronzeName, filepath.Ext(bronzeName))
	return stem + "_silver.csv"
}

// Write stores rows in the canonical schema under dir. The file is written
// to a temp name and renamed into place.
func Write(dir, bronzeName string, rows []model.MarketDataRow) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create silver dir: %w", err)
	}
	path := filepath.Join(dir, FileName(bronzeName))

	tmp, err := os.CreateTemp(dir, ".silver-*.csv")
	if err != nil {
		return "", fmt.Errorf("create silver temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write silver header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write(Record(r)); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write silver row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("flush silver file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename silver file: %w", err)
	}
	return path, nil
}

// Record renders a row in Columns order.
func Record(r model.MarketDataRow) []string {
	return []string{
		r.Symbol,
		r.Date.Format(model.DateLayout),
		strconv.FormatFloat(r.Open, 'f', -1, 64),
		strconv.FormatFloat(r.High, 'f', -1, 64),
		strconv.FormatFloat(r.Low, 'f', -1, 64),
		strconv.FormatFloat(r.Close, 'f', -1, 64),
		strconv.FormatInt(r.Volume, 10),
	}
}
