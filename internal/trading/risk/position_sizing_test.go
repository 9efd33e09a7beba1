package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/WalletAdvisor/models"
)

func TestPositionFractionBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 1000; i++ {
		f := PositionFraction(rng.Float64()*1.5-0.25, rng.Float64()*2)
		assert.GreaterOrEqual(t, f, 0.01)
		assert.LessOrEqual(t, f, 0.05)
	}

	assert.Equal(t, 0.01, PositionFraction(0, 0.1))
	assert.InDelta(t, 0.016, PositionFraction(0.2, 1), 1e-9)
	assert.Equal(t, 0.05, PositionFraction(0, 5))
}

func TestDetermineStopLoss(t *testing.T) {
	assert.InDelta(t, 97.0, DetermineStopLoss(100, 0.02, models.TradeBuy), 1e-9)
	assert.InDelta(t, 103.0, DetermineStopLoss(100, 0.02, models.TradeSell), 1e-9)
}
