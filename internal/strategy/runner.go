package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/internal/analyze"
	"github.com/Alias1177/WalletAdvisor/internal/calculate"
	"github.com/Alias1177/WalletAdvisor/internal/metrics"
	"github.com/Alias1177/WalletAdvisor/models"
)

// Feedback is the learning state read side
type Feedback interface {
	models.OutcomeRecorder
	Snapshot() models.LearningState
}

// PipelineRunner fetches prices, computes indicators, decides and places
// the order for one strategy
type PipelineRunner struct {
	Prices     models.PriceSource
	Sentiment  models.SentimentSource // nil derives sentiment from the trend
	Indicators calculate.IndicatorConfig
	Engine     *analyze.Engine
	Orders     models.OrderCreator
	Feedback   Feedback
	Notifier   models.Notifier // optional
	Now        func() time.Time

	logger zerolog.Logger
}

// NewPipelineRunner fills in the logger and clock of a runner
func NewPipelineRunner(r PipelineRunner) *PipelineRunner {
	if r.Now == nil {
		r.Now = time.Now
	}
	r.logger = log.With().Str("component", "strategy_runner").Logger()
	return &r
}

// Run evaluates a strategy once
func (r *PipelineRunner) Run(ctx context.Context, s models.Strategy) (Outcome, error) {
	points, err := r.Prices.GetPriceHistory(ctx, s.Asset)
	if err != nil {
		return Outcome{}, models.Unavailable("price history", err)
	}

	ind, err := calculate.CalculateAllIndicators(points, r.Indicators)
	if err != nil {
		return Outcome{}, err
	}

	sentiment, err := r.sentiment(ctx, s.Asset, ind)
	if err != nil {
		return Outcome{}, err
	}

	var feedback *models.LearningState
	if r.Feedback != nil {
		snap := r.Feedback.Snapshot()
		feedback = &snap
	}

	decision, err := r.Engine.Decide(analyze.Input{
		Indicators: ind,
		Sentiment:  sentiment,
		RiskScore:  analyze.RiskScoreFor(s.RiskLevel, ind.Volatility),
		Asset:      s.Asset,
		Feedback:   feedback,
	})
	if err != nil {
		return Outcome{}, err
	}

	metrics.StrategyRunsTotal.WithLabelValues(s.Asset, string(decision.Action)).Inc()

	logger := r.logger.With().Str("strategy_id", s.ID).Str("asset", s.Asset).Logger()
	logger.Info().
		Str("action", string(decision.Action)).
		Float64("amount", decision.Amount).
		Float64("confidence", decision.Confidence).
		Float64("risk_score", decision.RiskScore).
		Msg("Trading decision")

	r.notify(ctx, s, decision)

	if decision.Action == models.TradeHold {
		return Outcome{}, nil
	}

	result, err := r.Orders.CreateOrder(ctx, models.Order{
		StrategyID: s.ID,
		Asset:      s.Asset,
		Action:     decision.Action,
		Fraction:   decision.Amount * s.MaxAllocationPercent / 100,
		Price:      ind.CurrentPrice,
		CreatedAt:  r.Now(),
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create order: %w", err)
	}

	succeeded := result.Filled && result.ReturnPct >= 0
	if r.Feedback != nil {
		r.Feedback.RecordOutcome(decision.Confidence, succeeded)
	}

	logger.Info().
		Str("order_id", result.OrderID).
		Bool("filled", result.Filled).
		Float64("return_pct", result.ReturnPct).
		Msg("Order placed")

	return Outcome{Traded: true, Succeeded: succeeded, ReturnPct: result.ReturnPct}, nil
}

func (r *PipelineRunner) sentiment(ctx context.Context, asset string, ind *models.TechnicalIndicators) (models.Sentiment, error) {
	if r.Sentiment == nil {
		return TrendSentiment(ind), nil
	}

	sentiment, err := r.Sentiment.GetSentiment(ctx, asset)
	if err != nil {
		return "", models.Unavailable("sentiment", err)
	}
	return sentiment, nil
}

func (r *PipelineRunner) notify(ctx context.Context, s models.Strategy, d models.TradingDecision) {
	if r.Notifier == nil || d.Action == models.TradeHold {
		return
	}
	if err := r.Notifier.NotifyDecision(ctx, s, d); err != nil {
		r.logger.Warn().Err(err).Str("strategy_id", s.ID).Msg("Failed to send decision notification")
	}
}

// TrendSentiment reads the sentiment off the price relative to the slowest EMA
func TrendSentiment(ind *models.TechnicalIndicators) models.Sentiment {
	slowest, value := 0, 0.0
	for period, ema := range ind.EMA {
		if period > slowest {
			slowest, value = period, ema
		}
	}
	if slowest == 0 || ind.CurrentPrice >= value {
		return models.SentimentPositive
	}
	return models.SentimentNegative
}
