package collector

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"MarketETL/internal/config"
	"MarketETL/internal/model"
)

// Fetcher retrieves raw daily bars for one symbol over [start, end].
// An empty batch with a nil error means the provider had no data.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) (model.RawBatch, error)
	Name() string
}

// NewFetcher builds the fetcher selected by the data source config.
func NewFetcher(cfg config.DataSourceConfig, proxyURL string) Fetcher {
	switch cfg.Provider {
	case config.ProviderREST:
		return NewRESTFetcher(cfg.BaseURL, cfg.APIKey, proxyURL, cfg.Timeout)
	default:
		return NewYahooFetcher(proxyURL, cfg.Timeout)
	}
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
