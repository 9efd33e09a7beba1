package calculate

const (
	macdFastPeriod = 12
	macdSlowPeriod = 26
)

// MACD is EMA(12) - EMA(26)
func MACD(prices []float64) float64 {
	return EMA(prices, macdFastPeriod) - EMA(prices, macdSlowPeriod)
}
