package silver

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"MarketETL/internal/model"
)

// Canonical (silver) column names.
const (
	FieldSymbol = "symbol"
	FieldDate   = "date"
	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldVolume = "volume"
)

// Columns is the silver schema in file order.
var Columns = []string{FieldSymbol, FieldDate, FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

var errMissing = errors.New("missing field")

// normalize maps a raw record onto lowercase, trimmed column names. When two
// raw columns collide (e.g. "Close" and "close") the first non-empty value
// wins, visiting an already-canonical name first and the rest in byte order.
func normalize(rec model.RawRecord) map[string]string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := isCanonical(keys[i]), isCanonical(keys[j])
		if ci != cj {
			return ci
		}
		return keys[i] < keys[j]
	})

	out := make(map[string]string, len(rec))
	for _, k := range keys {
		key := strings.ToLower(strings.TrimSpace(k))
		if prev, ok := out[key]; ok && prev != "" {
			continue
		}
		out[key] = rec[k]
	}
	return out
}

func isCanonical(k string) bool {
	return k == strings.ToLower(strings.TrimSpace(k))
}

var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseDate accepts a bare date or a timestamp and returns the calendar date
// as seen in the value's own offset.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errMissing
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.CalendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errMissing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// parseInt accepts integer text, or float text with no fractional part
// ("1000.0"), which is how pandas writes integer columns holding gaps.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errMissing
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("non-integral value %q", s)
	}
	return int64(f), nil
}
