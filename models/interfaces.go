package models

import (
	"context"
	"math/big"
)

// GasOracle quotes gas tiers
type GasOracle interface {
	GetGasTier(ctx context.Context) (GasTier, error)
}

// MempoolSource reports pending transaction stats
type MempoolSource interface {
	GetMempoolStats(ctx context.Context) (MempoolStats, error)
}

// PriceSource returns an ordered price history, oldest first
type PriceSource interface {
	GetPriceHistory(ctx context.Context, asset string) ([]PricePoint, error)
}

// SentimentSource reports the market sentiment for an asset
type SentimentSource interface {
	GetSentiment(ctx context.Context, asset string) (Sentiment, error)
}

// ProfileStore serves behavioral profiles and per-account limits
type ProfileStore interface {
	GetAccountProfile(ctx context.Context, account string) (AccountProfile, error)
}

// Reputation is the answer of a reputation lookup
type Reputation struct {
	Flagged bool
	Reason  string
}

// ReputationSource looks up the reputation of a recipient address
type ReputationSource interface {
	Lookup(ctx context.Context, address string) (Reputation, error)
}

// LockChecker reports whether the wallet is locked
type LockChecker interface {
	IsLocked(ctx context.Context) (bool, error)
}

// Submitter broadcasts a transfer with the given gas price
type Submitter interface {
	Submit(ctx context.Context, transfer TransferRequest, gasPriceWei *big.Int) (string, error)
}

// OrderCreator places orders decided by a strategy
type OrderCreator interface {
	CreateOrder(ctx context.Context, order Order) (OrderResult, error)
}

// OutcomeRecorder is the feedback callback invoked once per completed cycle
type OutcomeRecorder interface {
	RecordOutcome(confidence float64, succeeded bool)
}

// Notifier delivers verdicts and decisions to the user
type Notifier interface {
	NotifyAssessment(ctx context.Context, account string, assessment RiskAssessment) error
	NotifyDecision(ctx context.Context, strategy Strategy, decision TradingDecision) error
}

// AuditLog stores transfer evaluations
type AuditLog interface {
	RecordAssessment(ctx context.Context, record AssessmentRecord) error
}
