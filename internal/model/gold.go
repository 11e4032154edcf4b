package model

// AggregateRecord is the per-symbol gold summary.
type AggregateRecord struct {
	Symbol       string
	LatestDate   string
	LatestClose  float64
	Avg7dClose   float64
	Avg30dClose  float64
	LatestVolume int64
}

// FreshnessRecord reports how far behind a symbol's data is.
type FreshnessRecord struct {
	LastAvailableDate string `json:"last_available_date"`
	DaysSinceUpdate   int    `json:"days_since_update"`
	IsStale           bool   `json:"is_stale"`
}
