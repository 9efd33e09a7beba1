package risk

import (
	"github.com/Alias1177/WalletAdvisor/models"
)

const (
	basePositionFraction = 0.02
	minPositionFraction  = 0.01
	maxPositionFraction  = 0.05

	stopLossVolatilityMultiplier = 1.5
)

// PositionFraction sizes a trade as a fraction of allocated capital.
// The result always lies in [0.01, 0.05].
func PositionFraction(riskScore, confidence float64) float64 {
	fraction := basePositionFraction * (1 - models.Clamp01(riskScore)) * confidence
	return models.Clamp(fraction, minPositionFraction, maxPositionFraction)
}

// DetermineStopLoss places a stop-loss from the current price using the
// series volatility as the distance measure
func DetermineStopLoss(currentPrice, volatility float64, action models.TradeAction) float64 {
	distance := currentPrice * volatility * stopLossVolatilityMultiplier

	if action == models.TradeSell {
		return currentPrice + distance
	}
	return currentPrice - distance
}
