// Package backtest replays the decision engine over a price history and
// scores every buy or sell against the next observed price.
package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/internal/analyze"
	"github.com/Alias1177/WalletAdvisor/internal/calculate"
	"github.com/Alias1177/WalletAdvisor/internal/strategy"
	"github.com/Alias1177/WalletAdvisor/internal/trading/risk"
	"github.com/Alias1177/WalletAdvisor/models"
)

const (
	defaultWindow       = 40
	defaultInitialValue = 10000.0
)

// Config holds replay parameters
type Config struct {
	// Window is how many points the indicators see at each step
	Window       int
	InitialValue float64
	RiskLevel    models.RiskLevel
	Indicators   calculate.IndicatorConfig
}

// Learner receives replay outcomes. The live learning tracker satisfies it.
type Learner interface {
	models.OutcomeRecorder
	Snapshot() models.LearningState
}

// Trade is one scored decision
type Trade struct {
	Timestamp  int64              `json:"timestamp"`
	Action     models.TradeAction `json:"action"`
	Entry      float64            `json:"entry"`
	Exit       float64            `json:"exit"`
	Fraction   float64            `json:"fraction"`
	Confidence float64            `json:"confidence"`
	ReturnPct  float64            `json:"return_pct"`
	StoppedOut bool               `json:"stopped_out"`
}

// Won reports whether the trade made money
func (t Trade) Won() bool {
	return t.ReturnPct > 0
}

// Results summarizes a replay
type Results struct {
	Steps              int       `json:"steps"`
	TotalTrades        int       `json:"total_trades"`
	WinningTrades      int       `json:"winning_trades"`
	LosingTrades       int       `json:"losing_trades"`
	WinPercentage      float64   `json:"win_percentage"`
	TotalReturnPercent float64   `json:"total_return_percent"`
	MaxDrawdown        float64   `json:"max_drawdown"`
	ProfitFactor       float64   `json:"profit_factor"`
	SharpeRatio        float64   `json:"sharpe_ratio"`
	EquityCurve        []float64 `json:"equity_curve"`
	Trades             []Trade   `json:"trades"`
}

// Engine handles backtesting operations
type Engine struct {
	cfg      Config
	decision *analyze.Engine
	learner  Learner
	logger   zerolog.Logger
}

// NewEngine creates a replay engine. learner may be nil.
func NewEngine(cfg Config, decision *analyze.Engine, learner Learner) *Engine {
	if cfg.Window <= 1 {
		cfg.Window = defaultWindow
	}
	if cfg.InitialValue <= 0 {
		cfg.InitialValue = defaultInitialValue
	}
	if cfg.RiskLevel == "" {
		cfg.RiskLevel = models.RiskMedium
	}

	return &Engine{
		cfg:      cfg,
		decision: decision,
		learner:  learner,
		logger:   log.With().Str("component", "backtest").Logger(),
	}
}

// Run executes a backtest over historical data
func (e *Engine) Run(asset string, points []models.PricePoint) (*Results, error) {
	if len(points) <= e.cfg.Window {
		return nil, fmt.Errorf("insufficient historical data for backtesting, got %d points, need more than %d",
			len(points), e.cfg.Window)
	}

	results := &Results{
		EquityCurve: []float64{e.cfg.InitialValue},
		Trades:      []Trade{},
	}
	equity := e.cfg.InitialValue
	var grossProfit, grossLoss float64

	for i := e.cfg.Window; i < len(points); i++ {
		window := points[i-e.cfg.Window : i]
		results.Steps++

		ind, err := calculate.CalculateAllIndicators(window, e.cfg.Indicators)
		if err != nil {
			return nil, err
		}

		in := analyze.Input{
			Indicators: ind,
			Sentiment:  strategy.TrendSentiment(ind),
			RiskScore:  analyze.RiskScoreFor(e.cfg.RiskLevel, ind.Volatility),
			Asset:      asset,
		}
		if e.learner != nil {
			state := e.learner.Snapshot()
			in.Feedback = &state
		}

		decision, err := e.decision.Decide(in)
		if err != nil {
			return nil, err
		}
		if decision.Action == models.TradeHold {
			continue
		}

		trade := scoreTrade(decision, ind, points[i])
		results.Trades = append(results.Trades, trade)
		results.TotalTrades++

		pnl := equity * trade.Fraction * trade.ReturnPct
		equity += pnl
		results.EquityCurve = append(results.EquityCurve, equity)

		if trade.Won() {
			results.WinningTrades++
			grossProfit += pnl
		} else {
			results.LosingTrades++
			grossLoss -= pnl
		}

		if e.learner != nil {
			e.learner.RecordOutcome(decision.Confidence, trade.Won())
		}
	}

	results.TotalReturnPercent = (equity - e.cfg.InitialValue) / e.cfg.InitialValue * 100
	calculateMetrics(results, grossProfit, grossLoss)

	e.logger.Info().
		Str("asset", asset).
		Int("steps", results.Steps).
		Int("trades", results.TotalTrades).
		Float64("win_pct", results.WinPercentage).
		Float64("return_pct", results.TotalReturnPercent).
		Float64("max_drawdown", results.MaxDrawdown).
		Msg("Backtest finished")

	return results, nil
}

// scoreTrade settles a decision at the next price, capping losses at the
// volatility stop
func scoreTrade(decision models.TradingDecision, ind *models.TechnicalIndicators, next models.PricePoint) Trade {
	entry := ind.CurrentPrice
	exit := next.Price
	stop := risk.DetermineStopLoss(entry, ind.Volatility, decision.Action)

	trade := Trade{
		Timestamp:  next.Timestamp,
		Action:     decision.Action,
		Entry:      entry,
		Fraction:   decision.Amount,
		Confidence: decision.Confidence,
	}

	switch decision.Action {
	case models.TradeBuy:
		if stop < entry && exit < stop {
			exit, trade.StoppedOut = stop, true
		}
	case models.TradeSell:
		if stop > entry && exit > stop {
			exit, trade.StoppedOut = stop, true
		}
	}
	trade.Exit = exit

	if entry > 0 {
		trade.ReturnPct = (exit - entry) / entry
		if decision.Action == models.TradeSell {
			trade.ReturnPct = -trade.ReturnPct
		}
	}
	if math.IsNaN(trade.ReturnPct) || math.IsInf(trade.ReturnPct, 0) {
		trade.ReturnPct = 0
	}

	return trade
}

// FormatResults creates a human-readable summary of backtest results
func FormatResults(results *Results) string {
	if results == nil {
		return "No backtest results available"
	}

	var b strings.Builder
	b.WriteString("\n===== BACKTEST RESULTS =====\n")
	fmt.Fprintf(&b, "Steps replayed: %d\n", results.Steps)
	fmt.Fprintf(&b, "Total trades: %d\n", results.TotalTrades)
	fmt.Fprintf(&b, "Winning trades: %d (%.2f%%)\n", results.WinningTrades, results.WinPercentage)
	fmt.Fprintf(&b, "Total return: %.4f%%\n", results.TotalReturnPercent)
	fmt.Fprintf(&b, "Profit factor: %.2f\n", results.ProfitFactor)
	fmt.Fprintf(&b, "Maximum drawdown: %.4f%%\n", results.MaxDrawdown)
	fmt.Fprintf(&b, "Sharpe ratio: %.2f\n", results.SharpeRatio)

	return b.String()
}
