package silver

import (
	"strings"

	"MarketETL/internal/model"
)

// Dedupe keeps the first record for each (symbol, date) pair and drops later
// ones. Dates that parse are compared as calendar dates, so the same bar
// written as "2024-01-02" and "2024-01-02 00:00:00-05:00" collapses. Records
// without a usable key are kept so the validator can count them as rejects.
func Dedupe(batch model.RawBatch) (model.RawBatch, int) {
	seen := make(map[model.RowKey]struct{}, len(batch.Records))
	out := model.RawBatch{Source: batch.Source, Columns: batch.Columns}
	out.Records = make([]model.RawRecord, 0, len(batch.Records))

	removed := 0
	for _, rec := range batch.Records {
		key, ok := dedupeKey(rec)
		if !ok {
			out.Records = append(out.Records, rec)
			continue
		}
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out.Records = append(out.Records, rec)
	}
	return out, removed
}

func dedupeKey(rec model.RawRecord) (model.RowKey, bool) {
	fields := normalize(rec)
	symbol := strings.TrimSpace(fields[FieldSymbol])
	if symbol == "" {
		return model.RowKey{}, false
	}
	date, err := parseDate(fields[FieldDate])
	if err != nil {
		return model.RowKey{}, false
	}
	return model.RowKey{Symbol: symbol, Date: date.Format(model.DateLayout)}, true
}
