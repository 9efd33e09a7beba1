package gas

import (
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/WalletAdvisor/internal/network"
	"github.com/Alias1177/WalletAdvisor/models"
)

// Wednesday evening: time multiplier 1.0
var neutralTime = time.Date(2025, time.January, 15, 20, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testTier() models.GasTier {
	return models.GasTier{
		Slow:       big.NewInt(10e9),
		Standard:   big.NewInt(25e9),
		Fast:       big.NewInt(60e9),
		Instant:    big.NewInt(90e9),
		Confidence: 0.9,
	}
}

func conditions(c models.Congestion) models.NetworkConditions {
	return models.NetworkConditions{
		GasPriceGwei:       25,
		Congestion:         c,
		MempoolSize:        10_000,
		AvgWaitTimeSeconds: 36,
		Confidence:         1,
	}
}

func TestRecommendScenarios(t *testing.T) {
	tests := []struct {
		name        string
		congestion  models.Congestion
		urgency     models.Urgency
		target      *big.Int
		action      models.GasAction
		recommended int64
		savings     int64
	}{
		{"target at slow tier", models.CongestionLow, models.UrgencyLow, big.NewInt(10e9), models.ActionOptimize, 10e9, 0},
		{"high urgency derives target", models.CongestionLow, models.UrgencyHigh, nil, models.ActionExecuteNow, 60e9, 0},
		{"high urgency explicit target", models.CongestionLow, models.UrgencyHigh, big.NewInt(30e9), models.ActionExecuteNow, 60e9, 0},
		{"delay under high congestion", models.CongestionHigh, models.UrgencyLow, big.NewInt(5e9), models.ActionDelay, 10e9, 0},
		{"high congestion but medium urgency", models.CongestionHigh, models.UrgencyMedium, big.NewInt(5e9), models.ActionOptimize, 10e9, 0},
		{"between slow and fast", models.CongestionMedium, models.UrgencyMedium, big.NewInt(30e9), models.ActionOptimize, 25e9, 5e9},
		{"target above fast", models.CongestionMedium, models.UrgencyLow, big.NewInt(70e9), models.ActionExecuteNow, 60e9, 10e9},
	}

	opt := NewOptimizer(WithClock(fixedClock(neutralTime)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := opt.Recommend(Request{
				Tier:        testTier(),
				Conditions:  conditions(tt.congestion),
				Personality: models.PersonalityModerate,
				TargetWei:   tt.target,
				Urgency:     tt.urgency,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.action, rec.Action)
			assert.Zero(t, big.NewInt(tt.recommended).Cmp(rec.RecommendedGasPriceWei), "recommended %s", rec.RecommendedGasPriceWei)
			assert.Zero(t, big.NewInt(tt.savings).Cmp(rec.GasSavingsWei), "savings %s", rec.GasSavingsWei)
			assert.NotEmpty(t, rec.Reasoning)
			assert.Equal(t, network.RiskContribution(conditions(tt.congestion)), rec.RiskScore)
		})
	}
}

func TestDelayReducesConfidence(t *testing.T) {
	opt := NewOptimizer(WithClock(fixedClock(neutralTime)))

	rec, err := opt.Recommend(Request{
		Tier:       testTier(),
		Conditions: conditions(models.CongestionHigh),
		TargetWei:  big.NewInt(1),
		Urgency:    models.UrgencyLow,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ActionDelay, rec.Action)
	assert.InDelta(t, 0.9*0.8, rec.Confidence, 1e-9)
	assert.Equal(t, 72.0, rec.EstimatedWaitSeconds)
}

func TestDeterministicPersonalities(t *testing.T) {
	tests := []struct {
		personality models.Personality
		expected    int64
	}{
		{models.PersonalityConservative, 36e9}, // 1.2 * 1.2
		{models.PersonalityModerate, 30e9},     // 1.2
		{models.PersonalityAggressive, 24e9},   // 1.2 * 0.8
		{models.PersonalityDegenerate, 18e9},   // 1.2 * 0.6
	}

	opt := NewOptimizer(WithClock(fixedClock(neutralTime)))

	for _, tt := range tests {
		t.Run(string(tt.personality), func(t *testing.T) {
			m := opt.TotalMultiplier(models.CongestionHigh, tt.personality)
			first := ApplyMultiplier(big.NewInt(25e9), m)
			second := ApplyMultiplier(big.NewInt(25e9), opt.TotalMultiplier(models.CongestionHigh, tt.personality))

			assert.Zero(t, big.NewInt(tt.expected).Cmp(first), "got %s", first)
			assert.Zero(t, first.Cmp(second))
		})
	}
}

func TestTimeMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		expected float64
	}{
		{"early morning weekday", time.Date(2025, 1, 13, 4, 0, 0, 0, time.UTC), 0.9},
		{"hour 6 is still early", time.Date(2025, 1, 13, 6, 59, 0, 0, time.UTC), 0.9},
		{"business hours", time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC), 1.1},
		{"hour 17 is business", time.Date(2025, 1, 13, 17, 30, 0, 0, time.UTC), 1.1},
		{"weekday evening", time.Date(2025, 1, 13, 20, 0, 0, 0, time.UTC), 1.0},
		{"weekday 7am", time.Date(2025, 1, 13, 7, 0, 0, 0, time.UTC), 1.0},
		{"saturday evening", time.Date(2025, 1, 18, 20, 0, 0, 0, time.UTC), 0.95},
		{"saturday business hours: earlier rule wins", time.Date(2025, 1, 18, 10, 0, 0, 0, time.UTC), 1.1},
		{"sunday early: earlier rule wins", time.Date(2025, 1, 19, 3, 0, 0, 0, time.UTC), 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TimeMultiplier(tt.at))
		})
	}
}

func TestAIDecidesPersonality(t *testing.T) {
	assert.Equal(t, 1.0, PersonalityMultiplier(models.PersonalityAIDecides, func() float64 { return 0.5 }))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		m := PersonalityMultiplier(models.PersonalityAIDecides, rng.Float64)
		assert.GreaterOrEqual(t, m, 0.8)
		assert.Less(t, m, 1.2)
	}
}

func TestApplyMultiplierNonNegativeWholeWei(t *testing.T) {
	assert.Zero(t, ApplyMultiplier(nil, 1.5).Sign())
	assert.Zero(t, ApplyMultiplier(big.NewInt(-5), 1.5).Sign())
	assert.Zero(t, ApplyMultiplier(big.NewInt(100), -1).Sign())

	// 333 * 115 / 100 truncates to whole wei
	assert.Zero(t, big.NewInt(382).Cmp(ApplyMultiplier(big.NewInt(333), 1.15)))

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		base := big.NewInt(rng.Int63n(500e9))
		out := ApplyMultiplier(base, rng.Float64()*3)
		assert.GreaterOrEqual(t, out.Sign(), 0)
	}
}

func TestRecommendRejectsIncompleteTier(t *testing.T) {
	opt := NewOptimizer()

	_, err := opt.Recommend(Request{Tier: models.GasTier{Slow: big.NewInt(1)}})
	assert.ErrorIs(t, err, models.ErrExternalDataUnavailable)
}

func TestFeedbackBlendsConfidence(t *testing.T) {
	opt := NewOptimizer(WithClock(fixedClock(neutralTime)))

	rec, err := opt.Recommend(Request{
		Tier:       testTier(),
		Conditions: conditions(models.CongestionMedium),
		TargetWei:  big.NewInt(30e9),
		Urgency:    models.UrgencyMedium,
		Feedback:   &models.LearningState{ConfidenceScore: 0.5},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, rec.Confidence, 1e-9)
}
