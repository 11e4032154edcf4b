package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"MarketETL/internal/model"
)

// DefaultYahooBaseURL is the public chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: DefaultYahooBaseURL,
		Client:  newHTTPClient(proxyURL, timeout),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch requests daily bars for [start, end]. Bars Yahoo reports as null
// (holidays, halts) are kept with empty fields so validation counts them.
func (f *YahooFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (model.RawBatch, error) {
	batch := model.RawBatch{Source: f.Name() + ":" + symbol, Columns: model.BronzeColumns}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return batch, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return batch, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return batch, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return batch, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return batch, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return batch, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return batch, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return batch, fmt.Errorf("yahoo: response has timestamps but no quotes")
	}
	quote := result.Indicators.Quote[0]

	batch.Records = make([]model.RawRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Shift into exchange time so the calendar date is the trading day.
		day := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		batch.Records = append(batch.Records, model.RawRecord{
			model.ColDate:   day.Format(model.DateLayout),
			model.ColOpen:   value(quote.Open, i, formatFloat),
			model.ColHigh:   value(quote.High, i, formatFloat),
			model.ColLow:    value(quote.Low, i, formatFloat),
			model.ColClose:  value(quote.Close, i, formatFloat),
			model.ColVolume: value(quote.Volume, i, formatVolume),
			model.ColSymbol: symbol,
		})
	}
	return batch, nil
}

func value(series []*float64, i int, format func(float64) string) string {
	if i >= len(series) || series[i] == nil {
		return ""
	}
	return format(*series[i])
}

func formatVolume(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}
