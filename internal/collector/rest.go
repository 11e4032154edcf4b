package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"MarketETL/internal/model"
)

// RESTFetcher implements Fetcher against a vendor REST API that serves daily
// bars as a JSON array.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the vendor API. Fields are pointers
// so a missing value reaches bronze as an empty cell.
type restBar struct {
	Date      string   `json:"date"`
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

func (f *RESTFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (model.RawBatch, error) {
	batch := model.RawBatch{Source: f.Name() + ":" + symbol, Columns: model.BronzeColumns}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("start", start.Format(model.DateLayout))
	q.Set("end", end.Format(model.DateLayout))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return batch, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return batch, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return batch, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}

	var bars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return batch, fmt.Errorf("decode bars: %w", err)
	}
	for _, b := range bars {
		date := b.Date
		if date == "" && b.Timestamp != 0 {
			date = time.Unix(b.Timestamp, 0).UTC().Format(model.DateLayout)
		}
		batch.Records = append(batch.Records, model.RawRecord{
			model.ColDate:   date,
			model.ColOpen:   optional(b.Open, formatFloat),
			model.ColHigh:   optional(b.High, formatFloat),
			model.ColLow:    optional(b.Low, formatFloat),
			model.ColClose:  optional(b.Close, formatFloat),
			model.ColVolume: optional(b.Volume, formatVolume),
			model.ColSymbol: symbol,
		})
	}
	return batch, nil
}

func optional(v *float64, format func(float64) string) string {
	if v == nil {
		return ""
	}
	return format(*v)
}
