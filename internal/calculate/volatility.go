package calculate

// Volatility is the population standard deviation of simple
// period-over-period returns. A zero previous price contributes a 0 return.
func Volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}

	return populationStdDev(returns, calculateAverage(returns))
}
