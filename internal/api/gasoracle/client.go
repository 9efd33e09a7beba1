// Package gasoracle fetches gas tier quotes and mempool figures.
package gasoracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/WalletAdvisor/internal/platform/http"
	"github.com/Alias1177/WalletAdvisor/models"
)

// Client is the gas oracle HTTP client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new gas oracle client
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

type tierResponse struct {
	Slow       string  `json:"slow"`
	Standard   string  `json:"standard"`
	Fast       string  `json:"fast"`
	Instant    string  `json:"instant"`
	Confidence float64 `json:"confidence"`
}

type mempoolResponse struct {
	PendingCount   int    `json:"pending_count"`
	AvgGasPriceWei string `json:"avg_gas_price_wei"`
}

// NewClient creates a new gas oracle client
func NewClient(options ClientOptions) *Client {
	return &Client{
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Source:          "gas_oracle",
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "gas_oracle_client").Logger(),
	}
}

// GetGasTier fetches the current fee tiers. Prices are wei, decimal or 0x hex.
func (c *Client) GetGasTier(ctx context.Context) (models.GasTier, error) {
	var data tierResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/gas", &data); err != nil {
		return models.GasTier{}, fmt.Errorf("fetching gas tier: %w", err)
	}

	tier := models.GasTier{Confidence: models.Clamp01(data.Confidence)}
	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"slow", data.Slow, &tier.Slow},
		{"standard", data.Standard, &tier.Standard},
		{"fast", data.Fast, &tier.Fast},
		{"instant", data.Instant, &tier.Instant},
	}
	for _, f := range fields {
		v, err := parseWei(f.raw)
		if err != nil {
			return models.GasTier{}, fmt.Errorf("gas tier %s: %w", f.name, err)
		}
		*f.dst = v
	}

	if tier.Slow.Cmp(tier.Standard) > 0 || tier.Standard.Cmp(tier.Fast) > 0 {
		c.logger.Warn().
			Str("slow", tier.Slow.String()).
			Str("standard", tier.Standard.String()).
			Str("fast", tier.Fast.String()).
			Msg("Gas tiers out of order")
	}

	c.logger.Debug().Str("standard_wei", tier.Standard.String()).Msg("Fetched gas tier")
	return tier, nil
}

// GetMempoolStats fetches pending transaction figures
func (c *Client) GetMempoolStats(ctx context.Context) (models.MempoolStats, error) {
	var data mempoolResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/mempool", &data); err != nil {
		return models.MempoolStats{}, fmt.Errorf("fetching mempool stats: %w", err)
	}
	if data.PendingCount < 0 {
		return models.MempoolStats{}, fmt.Errorf("negative pending count %d", data.PendingCount)
	}

	avg := new(big.Int)
	if data.AvgGasPriceWei != "" {
		var err error
		if avg, err = parseWei(data.AvgGasPriceWei); err != nil {
			return models.MempoolStats{}, fmt.Errorf("mempool avg gas price: %w", err)
		}
	}

	return models.MempoolStats{PendingCount: data.PendingCount, AvgGasPriceWei: avg}, nil
}

func parseWei(raw string) (*big.Int, error) {
	v, ok := math.ParseBig256(strings.TrimSpace(raw))
	if !ok || raw == "" {
		return nil, fmt.Errorf("invalid wei amount %q", raw)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative wei amount %q", raw)
	}
	return v, nil
}
