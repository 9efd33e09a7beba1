package models

import (
	"math/big"
	"time"
)

// Congestion is the discretized network load level
type Congestion string

const (
	CongestionLow      Congestion = "low"
	CongestionMedium   Congestion = "medium"
	CongestionHigh     Congestion = "high"
	CongestionCritical Congestion = "critical"
)

// Rank orders congestion levels from low to critical
func (c Congestion) Rank() int {
	switch c {
	case CongestionMedium:
		return 1
	case CongestionHigh:
		return 2
	case CongestionCritical:
		return 3
	default:
		return 0
	}
}

// NetworkConditions is an immutable snapshot of network load
type NetworkConditions struct {
	GasPriceGwei       float64    `json:"gas_price_gwei"`
	Congestion         Congestion `json:"congestion"`
	MempoolSize        int        `json:"mempool_size"`
	AvgWaitTimeSeconds float64    `json:"avg_wait_time_seconds"`
	Confidence         float64    `json:"confidence"` // 0-1
}

// GasTier is a fee quote from a gas oracle, all prices in wei
type GasTier struct {
	Slow       *big.Int `json:"slow"`
	Standard   *big.Int `json:"standard"`
	Fast       *big.Int `json:"fast"`
	Instant    *big.Int `json:"instant"`
	Confidence float64  `json:"confidence"`
}

// MempoolStats holds pending transaction figures
type MempoolStats struct {
	PendingCount   int      `json:"pending_count"`
	AvgGasPriceWei *big.Int `json:"avg_gas_price_wei"`
}

// Urgency of an outgoing transfer
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Personality is the configured risk tolerance of the wallet owner
type Personality string

const (
	PersonalityConservative Personality = "conservative"
	PersonalityModerate     Personality = "moderate"
	PersonalityAggressive   Personality = "aggressive"
	PersonalityDegenerate   Personality = "degenerate"
	PersonalityAIDecides    Personality = "ai_decides"
)

// GasAction is what the optimizer suggests doing with a transfer
type GasAction string

const (
	ActionExecuteNow GasAction = "execute_now"
	ActionOptimize   GasAction = "optimize_gas"
	ActionDelay      GasAction = "delay_transaction"
)

// GasRecommendation is the output of the gas optimizer
type GasRecommendation struct {
	Action                 GasAction `json:"action"`
	RecommendedGasPriceWei *big.Int  `json:"recommended_gas_price_wei"`
	EstimatedWaitSeconds   float64   `json:"estimated_wait_seconds"`
	Confidence             float64   `json:"confidence"`
	Reasoning              string    `json:"reasoning"`
	RiskScore              float64   `json:"risk_score"`
	GasSavingsWei          *big.Int  `json:"gas_savings_wei"`
}

// RiskLevel is the verdict severity for a transfer
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskRunAway RiskLevel = "run_away"
)

var riskRank = map[RiskLevel]int{
	RiskLow:     0,
	RiskMedium:  1,
	RiskHigh:    2,
	RiskRunAway: 3,
}

// Rank orders risk levels, unknown levels rank lowest
func (l RiskLevel) Rank() int {
	return riskRank[l]
}

// Max returns the more severe of two levels
func (l RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.Rank() > l.Rank() {
		return other
	}
	return l
}

// RiskAssessment is the verdict for a single evaluated transfer
type RiskAssessment struct {
	Level              RiskLevel `json:"level"`
	Factors            []string  `json:"factors"`
	Confidence         float64   `json:"confidence"`
	RecommendationText string    `json:"recommendation_text"`
}

// TransferRequest is an outgoing transfer to be evaluated
type TransferRequest struct {
	Recipient string   `json:"recipient"`
	AmountWei *big.Int `json:"amount_wei"`
}

// Frequency is how often an account usually transacts
type Frequency string

const (
	FrequencyLow      Frequency = "low"
	FrequencyMedium   Frequency = "medium"
	FrequencyHigh     Frequency = "high"
	FrequencyAddicted Frequency = "addicted"
)

// BehaviorProfile is the stored behavioral profile of an account
type BehaviorProfile struct {
	TransactionFrequency Frequency `json:"transaction_frequency"`
}

// AccountProfile bundles the key-value reads needed to assess a transfer
type AccountProfile struct {
	Account                string          `json:"account"`
	Behavior               BehaviorProfile `json:"behavior"`
	PerTransactionLimitWei *big.Int        `json:"per_transaction_limit_wei"`
	BalanceWei             *big.Int        `json:"balance_wei,omitempty"`
}

// PricePoint is a single historical price observation
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// TechnicalIndicators holds all calculated technical indicators
type TechnicalIndicators struct {
	SMA            map[int]float64 `json:"sma"`
	EMA            map[int]float64 `json:"ema"`
	RSI            float64         `json:"rsi"`
	MACD           float64         `json:"macd"`
	BollingerUpper float64         `json:"bollinger_upper"`
	BollingerLower float64         `json:"bollinger_lower"`
	Volatility     float64         `json:"volatility"`
	CurrentPrice   float64         `json:"current_price"`
}

// Sentiment is the market sentiment direction
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
)

// TradeAction is the strategy verdict
type TradeAction string

const (
	TradeBuy  TradeAction = "buy"
	TradeSell TradeAction = "sell"
	TradeHold TradeAction = "hold"
)

// TradingDecision is the output of the strategy decision engine
type TradingDecision struct {
	Action     TradeAction `json:"action"`
	Asset      string      `json:"asset"`
	Amount     float64     `json:"amount"` // fraction of allocated capital
	Confidence float64     `json:"confidence"`
	RiskScore  float64     `json:"risk_score"`
	Reasoning  string      `json:"reasoning"`
	Factors    []string    `json:"factors"`
}

// StrategyPerformance accumulates execution results of a strategy
type StrategyPerformance struct {
	TotalTrades      int     `json:"total_trades"`
	SuccessfulTrades int     `json:"successful_trades"`
	TotalReturn      float64 `json:"total_return"`
}

// Strategy is an automated trading strategy definition
type Strategy struct {
	ID                   string              `json:"id"`
	Type                 string              `json:"type"`
	Asset                string              `json:"asset"`
	Enabled              bool                `json:"enabled"`
	Parameters           map[string]float64  `json:"parameters"`
	RiskLevel            RiskLevel           `json:"risk_level"`
	MaxAllocationPercent float64             `json:"max_allocation_percent"`
	LastExecutedAt       *time.Time          `json:"last_executed_at,omitempty"`
	Performance          StrategyPerformance `json:"performance"`
}

// LearningState is the running feedback accumulator
type LearningState struct {
	TotalTransactions int     `json:"total_transactions"`
	ConfidenceScore   float64 `json:"confidence_score"`
	SuccessRate       float64 `json:"success_rate"`
}

// Order is a trade order handed to the order collaborator
type Order struct {
	StrategyID string      `json:"strategy_id"`
	Asset      string      `json:"asset"`
	Action     TradeAction `json:"action"`
	Fraction   float64     `json:"fraction"` // of allocated capital
	Price      float64     `json:"price"`
	CreatedAt  time.Time   `json:"created_at"`
}

// OrderResult is what the order collaborator reports back
type OrderResult struct {
	OrderID   string  `json:"order_id"`
	Filled    bool    `json:"filled"`
	ReturnPct float64 `json:"return_pct"`
}

// AssessmentRecord is an audited transfer evaluation
type AssessmentRecord struct {
	ID         string         `json:"id"`
	Account    string         `json:"account"`
	Recipient  string         `json:"recipient"`
	AmountWei  *big.Int       `json:"amount_wei"`
	Assessment RiskAssessment `json:"assessment"`
	Status     string         `json:"status"`
	TxHash     string         `json:"tx_hash,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
