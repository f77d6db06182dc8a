package scanner

import (
	"fmt"
	"math"

	"opportunityScanner/internal/domain"
)

// Funding thresholds are fractions per funding period (0.0001 = 0.01%).
const (
	NegativeFundingThreshold = -0.0001
	HighFundingThreshold     = 0.0005

	negativeFundingBonus = 8
	highFundingPenalty   = 5
)

// AdjustForFunding applies the funding-rate adjustment to every opportunity with a known
// rate and returns a stably re-sorted copy. The input is not modified. An empty rates map
// returns the opportunities unchanged.
func AdjustForFunding(opps []domain.Opportunity, rates map[string]float64) (adjusted []domain.Opportunity, applied int) {
	adjusted = make([]domain.Opportunity, len(opps))
	copy(adjusted, opps)
	if len(rates) == 0 {
		return adjusted, 0
	}

	for i := range adjusted {
		rate, ok := rates[adjusted[i].Symbol]
		if !ok {
			continue
		}

		var signal string
		switch {
		case rate < NegativeFundingThreshold:
			adjusted[i].Score += negativeFundingBonus
			signal = fmt.Sprintf("Negative funding %.4f%% (bullish)", math.Abs(rate)*100)
		case rate > HighFundingThreshold:
			adjusted[i].Score -= highFundingPenalty
			signal = fmt.Sprintf("High funding %.4f%% (caution)", rate*100)
		default:
			continue
		}

		signals := make([]string, 0, len(adjusted[i].Signals)+1)
		signals = append(signals, adjusted[i].Signals...)
		adjusted[i].Signals = append(signals, signal)
		applied++
	}

	sortByScore(adjusted)
	return adjusted, applied
}
