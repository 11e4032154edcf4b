package model

import "time"

// DateLayout is the canonical calendar date format used in every layer.
const DateLayout = "2006-01-02"

// MarketDataRow is one validated daily bar. Date carries no time component
// (midnight UTC).
type MarketDataRow struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Key returns the (symbol, date) uniqueness key.
func (r MarketDataRow) Key() RowKey {
	return RowKey{Symbol: r.Symbol, Date: r.Date.Format(DateLayout)}
}

// RowKey identifies a bar in the store.
type RowKey struct {
	Symbol string
	Date   string
}

// CalendarDate truncates t to midnight UTC of its own calendar day, keeping the
// year/month/day as seen in t's location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
