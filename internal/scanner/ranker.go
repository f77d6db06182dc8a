package scanner

import (
	"sort"

	"opportunityScanner/internal/domain"
)

// DefaultTopN is the number of opportunities returned by a scan.
const DefaultTopN = 5

// Rank returns at most topN opportunities sorted by score descending.
// Ties keep their input order. The input is not modified and the result is never nil.
func Rank(opps []domain.Opportunity, topN int) []domain.Opportunity {
	if topN <= 0 {
		topN = DefaultTopN
	}

	ranked := make([]domain.Opportunity, len(opps))
	copy(ranked, opps)
	sortByScore(ranked)

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func sortByScore(opps []domain.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool { return opps[i].Score > opps[j].Score })
}
