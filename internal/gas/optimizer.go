// Package gas recommends a gas price and an action for an outgoing transfer.
package gas

import (
	"math/big"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/internal/format"
	"github.com/Alias1177/WalletAdvisor/internal/network"
	"github.com/Alias1177/WalletAdvisor/models"
)

// delayConfidencePenalty is applied when a transfer is deferred
const delayConfidencePenalty = 0.8

// Request is everything the optimizer needs for a single decision.
// Snapshots must already be resolved by the caller.
type Request struct {
	Tier        models.GasTier
	Conditions  models.NetworkConditions
	Personality models.Personality
	TargetWei   *big.Int // nil means derive from the base fee
	Urgency     models.Urgency
	Feedback    *models.LearningState
}

// Optimizer is stateless apart from its clock and random source
type Optimizer struct {
	now       func() time.Time
	randFloat func() float64
	logger    zerolog.Logger
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithClock sets the clock used for the time-of-day multiplier
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) { o.now = now }
}

// WithRandom sets the random source used by the ai_decides personality
func WithRandom(randFloat func() float64) Option {
	return func(o *Optimizer) { o.randFloat = randFloat }
}

// NewOptimizer creates a gas optimizer
func NewOptimizer(opts ...Option) *Optimizer {
	o := &Optimizer{
		now:       time.Now,
		randFloat: rand.Float64,
		logger:    log.With().Str("component", "gas_optimizer").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TotalMultiplier combines network, time and personality multipliers
func (o *Optimizer) TotalMultiplier(congestion models.Congestion, personality models.Personality) float64 {
	return NetworkMultiplier(congestion) *
		TimeMultiplier(o.now()) *
		PersonalityMultiplier(personality, o.randFloat)
}

// Recommend chooses an action and gas price for a transfer
func (o *Optimizer) Recommend(req Request) (models.GasRecommendation, error) {
	tier := req.Tier
	if !validTier(tier) {
		return models.GasRecommendation{}, models.Unavailable("gas tier", nil)
	}

	target := req.TargetWei
	if target == nil {
		multiplier := o.TotalMultiplier(req.Conditions.Congestion, req.Personality)
		target = ApplyMultiplier(tier.Standard, multiplier)
		o.logger.Debug().
			Float64("multiplier", multiplier).
			Str("base_wei", tier.Standard.String()).
			Str("target_wei", target.String()).
			Msg("Derived target gas price")
	}

	confidence := models.Clamp01(tier.Confidence)
	if req.Feedback != nil {
		confidence = models.Clamp01(0.5*confidence + 0.5*models.Clamp01(req.Feedback.ConfidenceScore))
	}

	var (
		action      models.GasAction
		recommended *big.Int
		wait        float64
	)

	// First match wins
	switch {
	case target.Cmp(tier.Slow) <= 0:
		recommended = tier.Slow
		wait = 2 * req.Conditions.AvgWaitTimeSeconds
		if req.Conditions.Congestion == models.CongestionHigh && req.Urgency == models.UrgencyLow {
			action = models.ActionDelay
			confidence = models.Clamp01(confidence * delayConfidencePenalty)
		} else {
			action = models.ActionOptimize
		}
	case target.Cmp(tier.Fast) >= 0 || req.Urgency == models.UrgencyHigh:
		action = models.ActionExecuteNow
		recommended = tier.Fast
		wait = network.BaseBlockTime
	default:
		action = models.ActionOptimize
		recommended = tier.Standard
		wait = req.Conditions.AvgWaitTimeSeconds
	}

	savings := new(big.Int).Sub(target, recommended)
	if savings.Sign() < 0 {
		savings.SetInt64(0)
	}

	return models.GasRecommendation{
		Action:                 action,
		RecommendedGasPriceWei: new(big.Int).Set(recommended),
		EstimatedWaitSeconds:   wait,
		Confidence:             confidence,
		Reasoning:              format.GasReasoning(action, req.Conditions.Congestion, req.Urgency, savings),
		RiskScore:              network.RiskContribution(req.Conditions),
		GasSavingsWei:          savings,
	}, nil
}

func validTier(t models.GasTier) bool {
	for _, p := range []*big.Int{t.Slow, t.Standard, t.Fast} {
		if p == nil || p.Sign() < 0 {
			return false
		}
	}
	return true
}
