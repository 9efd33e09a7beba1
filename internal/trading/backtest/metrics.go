package backtest

import "math"

// calculateMetrics computes performance metrics for the backtest
func calculateMetrics(results *Results, grossProfit, grossLoss float64) {
	if results.TotalTrades > 0 {
		results.WinPercentage = float64(results.WinningTrades) / float64(results.TotalTrades) * 100
	}

	if grossLoss > 0 {
		results.ProfitFactor = grossProfit / grossLoss
	} else {
		results.ProfitFactor = grossProfit
	}

	results.MaxDrawdown = maxDrawdown(results.EquityCurve) * 100

	returns := make([]float64, 0, len(results.Trades))
	for _, t := range results.Trades {
		returns = append(returns, t.Fraction*t.ReturnPct)
	}
	m := mean(returns)
	if sd := stdDev(returns, m); sd > 0 {
		results.SharpeRatio = m / sd * math.Sqrt(float64(len(returns)))
	}
}

// maxDrawdown is the largest peak-to-trough fall of the curve, as a fraction
func maxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	worst := 0.0
	peak := curve[0]
	for _, equity := range curve {
		if equity > peak {
			peak = equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - equity) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}
