package calculate

import (
	"math"
	"slices"

	"github.com/Alias1177/WalletAdvisor/models"
)

// IndicatorConfig selects the periods the engine computes
type IndicatorConfig struct {
	SMAPeriods []int
	EMAPeriods []int
	RSIPeriod  int
	BBPeriod   int
	BBStdDev   float64
}

// DefaultIndicatorConfig returns the periods used when none are configured
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		SMAPeriods: []int{7, 14, 25},
		EMAPeriods: []int{macdFastPeriod, macdSlowPeriod},
		RSIPeriod:  14,
		BBPeriod:   20,
		BBStdDev:   2,
	}
}

// WithSMAPeriods returns a copy of c that also computes the given SMA periods
func (c IndicatorConfig) WithSMAPeriods(periods ...int) IndicatorConfig {
	merged := append([]int(nil), c.SMAPeriods...)
	for _, p := range periods {
		if p > 0 && !slices.Contains(merged, p) {
			merged = append(merged, p)
		}
	}
	c.SMAPeriods = merged
	return c
}

func (c IndicatorConfig) withDefaults() IndicatorConfig {
	def := DefaultIndicatorConfig()
	if len(c.SMAPeriods) == 0 {
		c.SMAPeriods = def.SMAPeriods
	}
	if len(c.EMAPeriods) == 0 {
		c.EMAPeriods = def.EMAPeriods
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = def.RSIPeriod
	}
	if c.BBPeriod <= 0 {
		c.BBPeriod = def.BBPeriod
	}
	if c.BBStdDev <= 0 {
		c.BBStdDev = def.BBStdDev
	}
	return c
}

// CalculateAllIndicators calculates all technical indicators over a price
// series ordered oldest first. Indicators lacking history fall back to their
// neutral values; only an empty series is an error.
func CalculateAllIndicators(points []models.PricePoint, config IndicatorConfig) (*models.TechnicalIndicators, error) {
	if len(points) == 0 {
		return nil, models.Unavailable("price history", nil)
	}
	config = config.withDefaults()

	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}

	sma := make(map[int]float64, len(config.SMAPeriods))
	for _, period := range config.SMAPeriods {
		sma[period] = finite(SMA(prices, period))
	}

	ema := make(map[int]float64, len(config.EMAPeriods))
	for _, period := range config.EMAPeriods {
		ema[period] = finite(EMA(prices, period))
	}

	upper, lower := BollingerBands(prices, config.BBPeriod, config.BBStdDev)

	return &models.TechnicalIndicators{
		SMA:            sma,
		EMA:            ema,
		RSI:            finite(RSI(prices, config.RSIPeriod)),
		MACD:           finite(MACD(prices)),
		BollingerUpper: finite(upper),
		BollingerLower: finite(lower),
		Volatility:     finite(Volatility(prices)),
		CurrentPrice:   finite(prices[len(prices)-1]),
	}, nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
