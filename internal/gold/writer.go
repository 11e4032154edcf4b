package gold

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"MarketETL/internal/model"
)

// Output file names under the gold directory.
const (
	AggregatesFile = "aggregates.csv"
	FreshnessFile  = "freshness.json"
)

// AggregateColumns is the aggregates.csv header.
var AggregateColumns = []string{"symbol", "latest_date", "latest_close", "avg_7d_close", "avg_30d_close", "latest_volume"}

// WriteAggregates overwrites dir/aggregates.csv.
func WriteAggregates(dir string, recs []model.AggregateRecord) (string, error) {
	return writeAtomic(dir, AggregatesFile, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(AggregateColumns); err != nil {
			return err
		}
		for _, r := range recs {
			if err := w.Write([]string{
				r.Symbol,
				r.LatestDate,
				formatFloat(r.LatestClose),
				formatFloat(r.Avg7dClose),
				formatFloat(r.Avg30dClose),
				strconv.FormatInt(r.LatestVolume, 10),
			}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// WriteFreshness overwrites dir/freshness.json with a symbol-keyed object.
func WriteFreshness(dir string, fresh map[string]model.FreshnessRecord) (string, error) {
	return writeAtomic(dir, FreshnessFile, func(f *os.File) error {
		data, err := json.MarshalIndent(fresh, "", "  ")
		if err != nil {
			return err
		}
		_, err = f.Write(data)
		return err
	})
}

func writeAtomic(dir, name string, fill func(f *os.File) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create gold dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
