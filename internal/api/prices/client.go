// Package prices fetches historical price series from the Twelve Data API.
package prices

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/WalletAdvisor/internal/platform/http"
	"github.com/Alias1177/WalletAdvisor/models"
)

const defaultBaseURL = "https://api.twelvedata.com"

// Client is the Twelve Data API client
type Client struct {
	apiKey     string
	baseURL    string
	interval   string
	days       int
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Twelve Data client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	Interval        string
	HistoryDays     int
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewClient creates a new Twelve Data API client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	if options.Interval == "" {
		options.Interval = "1h"
	}
	if options.HistoryDays <= 0 {
		options.HistoryDays = 3
	}

	return &Client{
		apiKey:   options.APIKey,
		baseURL:  strings.TrimRight(options.BaseURL, "/"),
		interval: options.Interval,
		days:     options.HistoryDays,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Source:          "twelvedata",
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// GetPriceHistory fetches closing prices for the configured history window,
// oldest first
func (c *Client) GetPriceHistory(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	return c.GetPrices(ctx, symbol, models.PointsForHistory(c.interval, c.days))
}

// GetPrices fetches the latest count closing prices, oldest first
func (c *Client) GetPrices(ctx context.Context, symbol string, count int) ([]models.PricePoint, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", c.interval)
	query.Set("outputsize", strconv.Itoa(count))
	query.Set("apikey", c.apiKey)

	c.logger.Debug().Str("symbol", symbol).Int("count", count).Msg("Fetching prices")

	var data timeSeriesResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/time_series?"+query.Encode(), &data); err != nil {
		return nil, err
	}

	if data.Status == "error" {
		c.logger.Error().Str("message", data.Message).Msg("Twelve Data API error")
		return nil, fmt.Errorf("Twelve Data API error: %s", data.Message)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No prices in response")
		return nil, fmt.Errorf("empty data returned")
	}

	points := make([]models.PricePoint, 0, len(data.Values))
	for _, v := range data.Values {
		ts, err := parseDatetime(v.Datetime)
		if err != nil {
			return nil, err
		}
		price, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing close %q: %w", v.Close, err)
		}
		points = append(points, models.PricePoint{Timestamp: ts, Price: price})
	}

	// Sort by time (oldest first for proper calculations)
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})

	c.logger.Debug().Int("count", len(points)).Msg("Fetched prices")
	return points, nil
}

func parseDatetime(s string) (int64, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("parsing datetime %q", s)
}
