package gas

import (
	"math"
	"math/big"
	"time"

	"github.com/Alias1177/WalletAdvisor/models"
)

// multiplierScale is the fixed-point scale used for fee multipliers
const multiplierScale = 100

// NetworkMultiplier scales fees by congestion
func NetworkMultiplier(c models.Congestion) float64 {
	switch c {
	case models.CongestionLow:
		return 0.8
	case models.CongestionHigh:
		return 1.2
	case models.CongestionCritical:
		return 2.0
	default:
		return 1.0
	}
}

// TimeMultiplier scales fees by the local hour and day. Earlier rules win.
func TimeMultiplier(t time.Time) float64 {
	hour := t.Hour()
	switch {
	case hour >= 2 && hour <= 6:
		return 0.9
	case hour >= 9 && hour <= 17:
		return 1.1
	case t.Weekday() == time.Saturday || t.Weekday() == time.Sunday:
		return 0.95
	default:
		return 1.0
	}
}

// PersonalityMultiplier scales fees by risk tolerance.
//
// ai_decides draws from [0.8,1.2) and is intentionally non-deterministic;
// every other personality is a fixed constant.
func PersonalityMultiplier(p models.Personality, randFloat func() float64) float64 {
	switch p {
	case models.PersonalityConservative:
		return 1.2
	case models.PersonalityAggressive:
		return 0.8
	case models.PersonalityDegenerate:
		return 0.6
	case models.PersonalityAIDecides:
		return 0.8 + randFloat()*0.4
	default:
		return 1.0
	}
}

// ScaledMultiplier converts a multiplier to integer hundredths
func ScaledMultiplier(m float64) int64 {
	scaled := int64(math.Round(m * multiplierScale))
	if scaled < 0 {
		return 0
	}
	return scaled
}

// ApplyMultiplier returns base * round(m*100) / 100 in whole wei
func ApplyMultiplier(base *big.Int, m float64) *big.Int {
	if base == nil || base.Sign() <= 0 {
		return new(big.Int)
	}

	out := new(big.Int).Mul(base, big.NewInt(ScaledMultiplier(m)))
	return out.Quo(out, big.NewInt(multiplierScale))
}
