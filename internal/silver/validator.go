package silver

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"MarketETL/internal/logging"
	"MarketETL/internal/model"
)

// Validator converts raw records into MarketDataRows. A record that fails
// coercion is dropped and counted; it never aborts the batch.
type Validator struct {
	logger logging.Logger
	strict bool
}

// NewValidator creates a Validator. Strict additionally enforces
// low <= open/close <= high and volume >= 0.
func NewValidator(logger logging.Logger, strict bool) *Validator {
	return &Validator{logger: logging.OrNop(logger), strict: strict}
}

// Validate returns the rows that coerced cleanly, in input order, and the
// number of rejected records.
func (v *Validator) Validate(batch model.RawBatch) ([]model.MarketDataRow, int) {
	rows := make([]model.MarketDataRow, 0, len(batch.Records))
	rejected := 0

	for i, rec := range batch.Records {
		row, err := v.coerce(rec)
		if err != nil {
			rejected++
			v.logger.Debug("row rejected", "source", batch.Source, "index", i, "reason", err)
			continue
		}
		rows = append(rows, row)
	}

	v.logger.Info("silver validation completed",
		"source", batch.Source,
		"valid_rows", len(rows),
		"rejected_rows", rejected,
	)
	return rows, rejected
}

func (v *Validator) coerce(rec model.RawRecord) (model.MarketDataRow, error) {
	fields := normalize(rec)

	var row model.MarketDataRow
	row.Symbol = strings.TrimSpace(fields[FieldSymbol])
	if row.Symbol == "" {
		return row, errors.New("symbol: empty")
	}

	var err error
	if row.Date, err = parseDate(fields[FieldDate]); err != nil {
		return row, fmt.Errorf("date: %w", err)
	}

	prices := []struct {
		name string
		dst  *float64
	}{
		{FieldOpen, &row.Open},
		{FieldHigh, &row.High},
		{FieldLow, &row.Low},
		{FieldClose, &row.Close},
	}
	for _, p := range prices {
		if *p.dst, err = parseFloat(fields[p.name]); err != nil {
			return row, fmt.Errorf("%s: %w", p.name, err)
		}
	}

	if row.Volume, err = parseInt(fields[FieldVolume]); err != nil {
		return row, fmt.Errorf("volume: %w", err)
	}

	if v.strict {
		if err := checkConsistency(row); err != nil {
			return row, err
		}
	}
	return row, nil
}

func checkConsistency(r model.MarketDataRow) error {
	if r.Low > r.High {
		return fmt.Errorf("low %v above high %v", r.Low, r.High)
	}
	if r.Low > math.Min(r.Open, r.Close) {
		return fmt.Errorf("low %v above open/close", r.Low)
	}
	if r.High < math.Max(r.Open, r.Close) {
		return fmt.Errorf("high %v below open/close", r.High)
	}
	if r.Volume < 0 {
		return fmt.Errorf("negative volume %d", r.Volume)
	}
	return nil
}
