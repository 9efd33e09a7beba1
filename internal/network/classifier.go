// Package network turns raw gas and mempool figures into a congestion level
// and a network risk contribution.
package network

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/WalletAdvisor/models"
)

// BaseBlockTime is the expected block interval in seconds
const BaseBlockTime = 12

var gweiExp int32 = -9

// Classify builds a network snapshot from the standard gas price and the
// number of pending transactions.
func Classify(standardGasGwei float64, pendingTxCount int) models.NetworkConditions {
	if pendingTxCount < 0 {
		pendingTxCount = 0
	}

	return models.NetworkConditions{
		GasPriceGwei:       standardGasGwei,
		Congestion:         congestionLevel(standardGasGwei, pendingTxCount),
		MempoolSize:        pendingTxCount,
		AvgWaitTimeSeconds: EstimateWaitSeconds(standardGasGwei, pendingTxCount),
		Confidence:         1,
	}
}

// FromSnapshot classifies a gas tier quote together with mempool stats
func FromSnapshot(tier models.GasTier, mempool models.MempoolStats) models.NetworkConditions {
	conditions := Classify(WeiToGwei(tier.Standard), mempool.PendingCount)
	conditions.Confidence = models.Clamp01(tier.Confidence)
	return conditions
}

// First match wins
func congestionLevel(gas float64, pending int) models.Congestion {
	switch {
	case gas < 20 && pending < 50_000:
		return models.CongestionLow
	case gas < 50 && pending < 100_000:
		return models.CongestionMedium
	case gas < 100 && pending < 200_000:
		return models.CongestionHigh
	default:
		return models.CongestionCritical
	}
}

// EstimateWaitSeconds estimates confirmation time for a given gas price
func EstimateWaitSeconds(gas float64, pending int) float64 {
	switch {
	case gas > 50:
		return BaseBlockTime * 1
	case gas > 30:
		return BaseBlockTime * 2
	case gas > 20:
		return BaseBlockTime * 3
	}

	backlog := math.Min(math.Max(float64(pending)/50_000, 0), 10)
	return BaseBlockTime * (3 + backlog)
}

// RiskContribution is the network share of a transfer's risk, in [0,1]
func RiskContribution(c models.NetworkConditions) float64 {
	risk := 0.1

	switch c.Congestion {
	case models.CongestionLow:
		risk += 0.1
	case models.CongestionMedium:
		risk += 0.3
	case models.CongestionHigh:
		risk += 0.6
	case models.CongestionCritical:
		risk += 0.9
	}

	if c.GasPriceGwei > 100 {
		risk += 0.3
	} else if c.GasPriceGwei > 50 {
		risk += 0.2
	}

	// EstimateWaitSeconds tops out at 13 blocks (156s), so this only fires
	// for conditions built outside Classify
	if c.AvgWaitTimeSeconds > 300 {
		risk += 0.2
	}

	return models.Clamp01(risk)
}

// WeiToGwei converts a wei amount to gwei. Nil is zero.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	gwei, _ := decimal.NewFromBigInt(wei, gweiExp).Float64()
	return gwei
}
