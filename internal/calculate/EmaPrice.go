package calculate

// EMA seeds with the first price and applies the recurrence across the whole
// series, not just the last period points.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 || period <= 0 {
		return 0
	}

	// Multiplier for weighting the EMA
	k := 2.0 / float64(period+1)

	ema := prices[0]
	for i := 1; i < len(prices); i++ {
		ema = prices[i]*k + ema*(1-k)
	}

	return ema
}
