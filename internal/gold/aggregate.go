// Package gold derives per-symbol aggregates and freshness signals from the
// full validated dataset. Outputs are recomputed wholesale on every run.
package gold

import (
	"errors"
	"sort"
	"time"

	"MarketETL/internal/calculator"
	"MarketETL/internal/model"
)

// DefaultStaleAfterDays is the freshness threshold: a symbol is stale when
// its latest bar is more than this many days old.
const DefaultStaleAfterDays = 2

// ErrNoData is returned when there are no validated rows to aggregate.
var ErrNoData = errors.New("gold: no validated rows")

// Aggregator computes gold outputs.
type Aggregator struct {
	StaleAfterDays int
}

// NewAggregator returns an Aggregator with the default threshold.
func NewAggregator() *Aggregator {
	return &Aggregator{StaleAfterDays: DefaultStaleAfterDays}
}

// Aggregate partitions rows by symbol, orders each partition by date and
// derives the AggregateRecord and FreshnessRecord per symbol. Records come
// back sorted by symbol. The input slice is not modified.
func (a *Aggregator) Aggregate(rows []model.MarketDataRow, now time.Time) ([]model.AggregateRecord, map[string]model.FreshnessRecord) {
	parts := Partition(rows)

	symbols := make([]string, 0, len(parts))
	for s := range parts {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	aggs := make([]model.AggregateRecord, 0, len(symbols))
	fresh := make(map[string]model.FreshnessRecord, len(symbols))
	for _, s := range symbols {
		part := parts[s]
		aggs = append(aggs, aggregateSymbol(s, part))
		fresh[s] = a.freshness(part[len(part)-1].Date, now)
	}
	return aggs, fresh
}

// Partition groups rows by symbol, each group sorted by date ascending.
// Rows sharing a date keep their input order.
func Partition(rows []model.MarketDataRow) map[string][]model.MarketDataRow {
	parts := make(map[string][]model.MarketDataRow)
	for _, r := range rows {
		parts[r.Symbol] = append(parts[r.Symbol], r)
	}
	for _, part := range parts {
		sort.SliceStable(part, func(i, j int) bool { return part[i].Date.Before(part[j].Date) })
	}
	return parts
}

func aggregateSymbol(symbol string, part []model.MarketDataRow) model.AggregateRecord {
	latest := part[len(part)-1]
	return model.AggregateRecord{
		Symbol:       symbol,
		LatestDate:   latest.Date.Format(model.DateLayout),
		LatestClose:  latest.Close,
		Avg7dClose:   calculator.TrailingCloseMean(part, 7),
		Avg30dClose:  calculator.TrailingCloseMean(part, 30),
		LatestVolume: latest.Volume,
	}
}

// freshness compares the latest bar date with today's UTC calendar date.
// Future-dated bars give a negative age, passed through as is.
func (a *Aggregator) freshness(last, now time.Time) model.FreshnessRecord {
	today := model.CalendarDate(now.UTC())
	days := int(today.Sub(model.CalendarDate(last)).Hours() / 24)
	return model.FreshnessRecord{
		LastAvailableDate: last.Format(model.DateLayout),
		DaysSinceUpdate:   days,
		IsStale:           days > a.StaleAfterDays,
	}
}

// Stale returns the symbols flagged stale, sorted.
func Stale(fresh map[string]model.FreshnessRecord) []string {
	var out []string
	for s, f := range fresh {
		if f.IsStale {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
