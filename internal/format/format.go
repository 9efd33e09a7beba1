// Package format renders user-facing text for verdicts and decisions.
// Nothing here feeds back into scoring.
package format

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/WalletAdvisor/models"
)

// Bucket names a [0,1] value: <0.3 low, 0.3-0.7 medium, >0.7 high
func Bucket(v float64) string {
	switch {
	case v < 0.3:
		return "low"
	case v <= 0.7:
		return "medium"
	default:
		return "high"
	}
}

// RiskRecommendation is a pure function of the risk level
func RiskRecommendation(level models.RiskLevel) string {
	switch level {
	case models.RiskLow:
		return "Transfer looks safe to proceed."
	case models.RiskMedium:
		return "Double-check the recipient and amount before sending."
	case models.RiskHigh:
		return "High risk detected. Verify the recipient through a separate channel before sending."
	case models.RiskRunAway:
		return "Transfer blocked. This transaction should not be sent."
	default:
		return "Unable to assess this transfer."
	}
}

// GasReasoning explains a gas recommendation
func GasReasoning(action models.GasAction, congestion models.Congestion, urgency models.Urgency, savingsWei *big.Int) string {
	var b strings.Builder

	switch action {
	case models.ActionExecuteNow:
		fmt.Fprintf(&b, "Execute now at the fast tier (%s urgency, %s congestion)", urgency, congestion)
	case models.ActionDelay:
		fmt.Fprintf(&b, "Delay: network congestion is %s and the transfer is not urgent", congestion)
	default:
		fmt.Fprintf(&b, "Optimized gas price for %s congestion", congestion)
	}

	if savingsWei != nil && savingsWei.Sign() > 0 {
		fmt.Fprintf(&b, ", saving %s gwei per gas", Gwei(savingsWei))
	}

	return b.String()
}

// DecisionReasoning templates the strategy verdict from its factors and buckets
func DecisionReasoning(action models.TradeAction, factors []string, confidence, riskScore float64) string {
	verb := map[models.TradeAction]string{
		models.TradeBuy:  "Buy",
		models.TradeSell: "Sell",
		models.TradeHold: "Hold",
	}[action]
	if verb == "" {
		verb = "Hold"
	}

	reason := "no strong signals"
	if len(factors) > 0 {
		reason = strings.Join(factors, ", ")
	}

	return fmt.Sprintf("%s with %s confidence at %s risk: %s",
		verb, Bucket(confidence), Bucket(riskScore), reason)
}

// Gwei renders a wei amount in gwei
func Gwei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -9).String()
}

// AssessmentMessage is the notification body for a risk verdict
func AssessmentMessage(account string, a models.RiskAssessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transfer risk for %s: %s\n", account, strings.ToUpper(string(a.Level)))
	fmt.Fprintf(&b, "Confidence: %s (%.2f)\n", Bucket(a.Confidence), a.Confidence)
	for _, f := range a.Factors {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString(a.RecommendationText)
	return b.String()
}

// DecisionMessage is the notification body for a trading decision
func DecisionMessage(s models.Strategy, d models.TradingDecision) string {
	return fmt.Sprintf("Strategy %s (%s) on %s: %s %.2f%% of allocation\n%s",
		s.ID, s.Type, d.Asset, strings.ToUpper(string(d.Action)), d.Amount*100, d.Reasoning)
}
