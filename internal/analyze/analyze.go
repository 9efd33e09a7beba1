// Package analyze turns technical indicators into a trading decision.
package analyze

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/internal/format"
	"github.com/Alias1177/WalletAdvisor/internal/trading/risk"
	"github.com/Alias1177/WalletAdvisor/models"
)

const (
	buyThreshold     = 0.3
	sellThreshold    = -0.3
	maxBuyRiskScore  = 0.7
	riskDampening    = 0.5
	maxVolatilityAdd = 0.2
	volatilityWeight = 5
)

// Config holds decision engine parameters
type Config struct {
	SMAShortPeriod int
	SMALongPeriod  int
	// MinFeedbackSamples is how many recorded outcomes feedback needs before
	// it scales the decision confidence
	MinFeedbackSamples int
}

// Input is a single decision request
type Input struct {
	Indicators *models.TechnicalIndicators
	Sentiment  models.Sentiment
	RiskScore  float64
	Asset      string
	Feedback   *models.LearningState
}

// Engine produces trading decisions. It holds no mutable state.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

// NewEngine creates a decision engine
func NewEngine(cfg Config) *Engine {
	if cfg.SMAShortPeriod <= 0 {
		cfg.SMAShortPeriod = 7
	}
	if cfg.SMALongPeriod <= 0 {
		cfg.SMALongPeriod = 25
	}
	if cfg.MinFeedbackSamples <= 0 {
		cfg.MinFeedbackSamples = 10
	}

	return &Engine{
		cfg:    cfg,
		logger: log.With().Str("component", "decision_engine").Logger(),
	}
}

// Decide scores the indicators and picks buy, sell or hold
func (e *Engine) Decide(in Input) (models.TradingDecision, error) {
	if in.Indicators == nil {
		return models.TradingDecision{}, models.Unavailable("indicators", nil)
	}

	riskScore := models.Clamp01(in.RiskScore)

	score, factors := DetermineTradeSignal(in.Indicators, in.Sentiment, e.cfg.SMAShortPeriod, e.cfg.SMALongPeriod)
	score *= 1 - riskScore*riskDampening

	action := models.TradeHold
	switch {
	case score > buyThreshold && riskScore < maxBuyRiskScore:
		action = models.TradeBuy
	case score < sellThreshold:
		action = models.TradeSell
	default:
		factors = append(factors, FactorSignalsMixed)
	}

	strength := math.Abs(score)
	amount := risk.PositionFraction(riskScore, strength)

	confidence := models.Clamp01(strength)
	if fb := in.Feedback; fb != nil && fb.TotalTransactions >= e.cfg.MinFeedbackSamples {
		confidence = models.Clamp01(confidence * (0.5 + models.Clamp01(fb.SuccessRate)))
	}

	e.logger.Debug().
		Str("asset", in.Asset).
		Float64("score", score).
		Float64("risk_score", riskScore).
		Str("action", string(action)).
		Msg("Trade signal evaluated")

	return models.TradingDecision{
		Action:     action,
		Asset:      in.Asset,
		Amount:     amount,
		Confidence: confidence,
		RiskScore:  riskScore,
		Reasoning:  format.DecisionReasoning(action, factors, confidence, riskScore),
		Factors:    factors,
	}, nil
}

// RiskScoreFor derives the decision risk score from a strategy's declared
// risk level and the observed volatility
func RiskScoreFor(level models.RiskLevel, volatility float64) float64 {
	var base float64
	switch level {
	case models.RiskLow:
		base = 0.2
	case models.RiskHigh, models.RiskRunAway:
		base = 0.8
	default:
		base = 0.5
	}

	return models.Clamp01(base + math.Min(math.Max(volatility, 0)*volatilityWeight, maxVolatilityAdd))
}
