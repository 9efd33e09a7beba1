package calculate

import "math"

// BollingerBands returns SMA(period) +/- stdDev*sigma over the last period
// prices. With too little history both bands collapse onto the last price.
func BollingerBands(prices []float64, period int, stdDev float64) (float64, float64) {
	if len(prices) == 0 {
		return 0, 0
	}
	if period <= 0 || len(prices) < period {
		last := prices[len(prices)-1]
		return last, last
	}

	middle := SMA(prices, period)
	sd := populationStdDev(prices[len(prices)-period:], middle)

	return middle + sd*stdDev, middle - sd*stdDev
}

func populationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var variance float64
	for _, v := range values {
		variance += math.Pow(v-mean, 2)
	}
	return math.Sqrt(variance / float64(len(values)))
}
