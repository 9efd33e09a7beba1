package analyze

import (
	"github.com/Alias1177/WalletAdvisor/models"
)

// Signal weights
const (
	rsiWeight       = 0.3
	trendWeight     = 0.2
	macdWeight      = 0.15
	sentimentWeight = 0.2

	rsiOversold   = 30
	rsiOverbought = 70
)

// Factor names reported in decisions
const (
	FactorOversold      = "oversold"
	FactorOverbought    = "overbought"
	FactorTrendUp       = "short-term trend above long-term"
	FactorTrendDown     = "short-term trend below long-term"
	FactorMACDPositive  = "positive MACD"
	FactorMACDNegative  = "negative MACD"
	FactorSentimentUp   = "positive sentiment"
	FactorSentimentDown = "negative sentiment"
	FactorSignalsMixed  = "signals mixed"
)

// DetermineTradeSignal adds up the weighted indicator signals.
// Positive scores are bullish, negative bearish. The result is not dampened.
func DetermineTradeSignal(ind *models.TechnicalIndicators, sentiment models.Sentiment, shortPeriod, longPeriod int) (float64, []string) {
	var (
		score   float64
		factors []string
	)

	// RSI signals
	if ind.RSI < rsiOversold {
		score += rsiWeight
		factors = append(factors, FactorOversold)
	} else if ind.RSI > rsiOverbought {
		score -= rsiWeight
		factors = append(factors, FactorOverbought)
	}

	// Moving average trend
	if ind.SMA[shortPeriod] > ind.SMA[longPeriod] {
		score += trendWeight
		factors = append(factors, FactorTrendUp)
	} else {
		score -= trendWeight
		factors = append(factors, FactorTrendDown)
	}

	// MACD signals
	if ind.MACD > 0 {
		score += macdWeight
		factors = append(factors, FactorMACDPositive)
	} else {
		score -= macdWeight
		factors = append(factors, FactorMACDNegative)
	}

	// Market sentiment
	if sentiment == models.SentimentPositive {
		score += sentimentWeight
		factors = append(factors, FactorSentimentUp)
	} else {
		score -= sentimentWeight
		factors = append(factors, FactorSentimentDown)
	}

	return score, factors
}
