package silver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketETL/internal/logging"
	"MarketETL/internal/model"
)

func rawRow(symbol, date string) model.RawRecord {
	return model.RawRecord{
		"symbol": symbol,
		"Date":   date,
		"Open":   "100.0",
		"High":   "110.0",
		"Low":    "95.0",
		"Close":  "105.0",
		"Volume": "1000000",
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidate_ValidRowPasses(t *testing.T) {
	v := NewValidator(nil, false)
	rows, rejected := v.Validate(model.RawBatch{Records: []model.RawRecord{rawRow("AAPL", "2024-01-01")}})

	require.Len(t, rows, 1)
	assert.Equal(t, 0, rejected)
	assert.Equal(t, model.MarketDataRow{
		Symbol: "AAPL", Date: day(2024, 1, 1),
		Open: 100, High: 110, Low: 95, Close: 105, Volume: 1_000_000,
	}, rows[0])
}

func TestValidate_PartialAcceptance(t *testing.T) {
	rec := logging.NewRecorder()
	v := NewValidator(rec, false)

	batch := model.RawBatch{
		Source:  "AAPL_r1.csv",
		Records: []model.RawRecord{rawRow("AAPL", "2024-01-01"), rawRow("AAPL", "not-a-date")},
	}
	rows, rejected := v.Validate(batch)

	require.Len(t, rows, 1)
	assert.Equal(t, day(2024, 1, 1), rows[0].Date)
	assert.Equal(t, 1, rejected)

	e, ok := rec.Find("silver validation completed")
	require.True(t, ok)
	assert.Equal(t, 1, e.Attrs["valid_rows"])
	assert.Equal(t, 1, e.Attrs["rejected_rows"])
	assert.Equal(t, "AAPL_r1.csv", e.Attrs["source"])
}

func TestValidate_EmptySymbolRejected(t *testing.T) {
	v := NewValidator(nil, false)
	for _, sym := range []string{"", "   "} {
		rows, rejected := v.Validate(model.RawBatch{Records: []model.RawRecord{rawRow(sym, "2024-01-01")}})
		assert.Empty(t, rows)
		assert.Equal(t, 1, rejected)
	}
}

func TestValidate_Coercion(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r model.RawRecord)
		ok     bool
	}{
		{name: "missing close column", mutate: func(r model.RawRecord) { delete(r, "Close") }},
		{name: "empty open", mutate: func(r model.RawRecord) { r["Open"] = "" }},
		{name: "non-numeric high", mutate: func(r model.RawRecord) { r["High"] = "abc" }},
		{name: "NaN low", mutate: func(r model.RawRecord) { r["Low"] = "NaN" }},
		{name: "infinite close", mutate: func(r model.RawRecord) { r["Close"] = "+Inf" }},
		{name: "fractional volume", mutate: func(r model.RawRecord) { r["Volume"] = "10.5" }},
		{name: "integral float volume", mutate: func(r model.RawRecord) { r["Volume"] = "1000.0" }, ok: true},
		{name: "negative volume is permissive", mutate: func(r model.RawRecord) { r["Volume"] = "-5" }, ok: true},
		{name: "tz-aware timestamp", mutate: func(r model.RawRecord) { r["Date"] = "2024-01-02 00:00:00-05:00" }, ok: true},
		{name: "rfc3339 timestamp", mutate: func(r model.RawRecord) { r["Date"] = "2024-01-02T15:30:00Z" }, ok: true},
		{
			name: "lowercase canonical columns",
			mutate: func(r model.RawRecord) {
				for _, k := range []string{"Date", "Open", "High", "Low", "Close", "Volume"} {
					r[lower(k)] = r[k]
					delete(r, k)
				}
			},
			ok: true,
		},
		{
			name: "upper case headers",
			mutate: func(r model.RawRecord) {
				r["CLOSE"] = r["Close"]
				delete(r, "Close")
			},
			ok: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rawRow("AAPL", "2024-01-02")
			tt.mutate(r)
			rows, rejected := NewValidator(nil, false).Validate(model.RawBatch{Records: []model.RawRecord{r}})
			if tt.ok {
				require.Len(t, rows, 1)
				assert.Equal(t, 0, rejected)
				assert.Equal(t, day(2024, 1, 2), rows[0].Date)
			} else {
				assert.Empty(t, rows)
				assert.Equal(t, 1, rejected)
			}
		})
	}
}

func TestValidate_Strict(t *testing.T) {
	good := rawRow("AAPL", "2024-01-02")
	lowAboveClose := rawRow("AAPL", "2024-01-03")
	lowAboveClose["Low"] = "106"
	highBelowOpen := rawRow("AAPL", "2024-01-04")
	highBelowOpen["High"] = "99"
	negativeVolume := rawRow("AAPL", "2024-01-05")
	negativeVolume["Volume"] = "-1"

	batch := model.RawBatch{Records: []model.RawRecord{good, lowAboveClose, highBelowOpen, negativeVolume}}

	rows, rejected := NewValidator(nil, true).Validate(batch)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rejected)

	rows, rejected = NewValidator(nil, false).Validate(batch)
	assert.Len(t, rows, 4)
	assert.Equal(t, 0, rejected)
}

func TestValidate_CaseCollidingColumns(t *testing.T) {
	v := NewValidator(nil, false)

	tests := []struct {
		name      string
		mutate    func(r model.RawRecord)
		wantClose float64
	}{
		{
			name:      "canonical name wins",
			mutate:    func(r model.RawRecord) { r["Close"], r["close"] = "1.5", "9.9" },
			wantClose: 9.9,
		},
		{
			name:      "empty canonical falls through",
			mutate:    func(r model.RawRecord) { r["Close"], r["close"] = "1.5", "" },
			wantClose: 1.5,
		},
		{
			name:      "byte order without canonical",
			mutate:    func(r model.RawRecord) { r["Close"], r["CLOSE"] = "1.5", "7.5" },
			wantClose: 7.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				rec := rawRow("AAPL", "2024-01-02")
				tt.mutate(rec)
				rows, rejected := v.Validate(model.RawBatch{Records: []model.RawRecord{rec}})
				require.Len(t, rows, 1)
				require.Equal(t, 0, rejected)
				require.Equal(t, tt.wantClose, rows[0].Close)
			}
		})
	}
}

func TestDedupe_CaseCollidingDateUsesCanonical(t *testing.T) {
	a := rawRow("AAPL", "2024-01-02")
	a["date"] = "2024-01-05"
	b := rawRow("AAPL", "2024-01-05")

	for i := 0; i < 50; i++ {
		out, removed := Dedupe(model.RawBatch{Records: []model.RawRecord{a, b}})
		require.Equal(t, 1, removed)
		require.Len(t, out.Records, 1)

		rows, _ := NewValidator(nil, false).Validate(out)
		require.Len(t, rows, 1)
		require.Equal(t, day(2024, 1, 5), rows[0].Date)
	}
}

func TestDedupe(t *testing.T) {
	first := rawRow("AAPL", "2024-01-02")
	dupSameText := rawRow("AAPL", "2024-01-02")
	dupSameText["Close"] = "999"
	dupOtherFormat := rawRow("AAPL", "2024-01-02 00:00:00-05:00")
	otherSymbol := rawRow("SPY", "2024-01-02")
	nextDay := rawRow("AAPL", "2024-01-03")
	badDate1 := rawRow("AAPL", "garbage")
	badDate2 := rawRow("AAPL", "garbage")

	batch := model.RawBatch{
		Source:  "AAPL_r1.csv",
		Records: []model.RawRecord{first, dupSameText, otherSymbol, dupOtherFormat, nextDay, badDate1, badDate2},
	}
	out, removed := Dedupe(batch)

	assert.Equal(t, 2, removed)
	assert.Equal(t, "AAPL_r1.csv", out.Source)
	require.Len(t, out.Records, 5)
	assert.Equal(t, "105.0", out.Records[0]["Close"], "first occurrence wins")
	assert.Equal(t, "SPY", out.Records[1]["symbol"])
	assert.Equal(t, "2024-01-03", out.Records[2]["Date"])

	rows, rejected := NewValidator(nil, false).Validate(out)
	assert.Len(t, rows, 3)
	assert.Equal(t, 2, rejected, "unkeyed records reach the validator")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	rows := []model.MarketDataRow{
		{Symbol: "AAPL", Date: day(2024, 1, 2), Open: 100, High: 105.5, Low: 99.25, Close: 104, Volume: 1000},
	}
	path, err := Write(dir, "AAPL_20240105T000000Z-abcd1234.csv", rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "AAPL_20240105T000000Z-abcd1234_silver.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "symbol,date,open,high,low,close,volume\nAAPL,2024-01-02,100,105.5,99.25,104,1000\n", string(data))

	// Rewriting replaces the file rather than appending.
	_, err = Write(dir, "AAPL_20240105T000000Z-abcd1234.csv", rows)
	require.NoError(t, err)
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}
