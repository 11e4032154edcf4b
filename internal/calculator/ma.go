package calculator

import (
	"errors"

	"MarketETL/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// TrailingMean averages the last n values, or all of them when fewer than n
// exist. It returns 0 for an empty slice.
func TrailingMean(values []float64, n int) float64 {
	if len(values) == 0 || n <= 0 {
		return 0
	}
	if n > len(values) {
		n = len(values)
	}
	avg, _ := CalculateSMA(values, n)
	return avg
}

// TrailingCloseMean averages the close of the last n bars (fewer if short).
func TrailingCloseMean(rows []model.MarketDataRow, n int) float64 {
	return TrailingMean(extractCloses(rows), n)
}

func extractCloses(rows []model.MarketDataRow) []float64 {
	closes := make([]float64, len(rows))
	for i, r := range rows {
		closes[i] = r.Close
	}
	return closes
}
