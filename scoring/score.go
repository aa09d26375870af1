// Package scoring rates how attractive an auction property is on a 1 to 5 scale.
package scoring

const (
	MinScore = 1
	MaxScore = 5

	highValueThreshold = 300000
)

// OpportunityScore maps discount depth and the foreclosure-to-market ratio to
// a score in [1,5]. A non-positive market value contributes no ratio bonus.
func OpportunityScore(discountPercent int, marketValue, foreclosureAmount float64) int {
	score := MinScore

	switch {
	case discountPercent > 40:
		score += 2
	case discountPercent > 25:
		score++
	}

	if marketValue > highValueThreshold {
		score++
	}

	if marketValue > 0 && foreclosureAmount >= 0 {
		ratio := foreclosureAmount / marketValue
		switch {
		case ratio < 0.5:
			score += 2
		case ratio < 0.7:
			score++
		}
	}

	return min(score, MaxScore)
}
