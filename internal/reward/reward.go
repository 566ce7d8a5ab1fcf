// Package reward derives star counts from raw gameplay outcomes. All
// functions are pure; persistence is the caller's concern.
package reward

// Star tiering thresholds for ratio-scored games
const (
	threeStarRatio = 0.9
	twoStarRatio   = 0.7
	oneStarRatio   = 0.5
)

// Composite scoring parameters for timed matching games. A session
// scores the base plus a bonus for finishing under the time ceiling and
// a bonus for staying under the move ceiling.
const (
	CompositeBase  = 1000
	TimeCeiling    = 300 // seconds
	TimeWeight     = 2
	MoveCeiling    = 20
	MoveWeight     = 10
	CompositeMax   = CompositeBase + TimeCeiling*TimeWeight + MoveCeiling*MoveWeight
)

// StarsForRatio returns the star count for a quiz-style result. Ratio
// tiers: >=90% three stars, >=70% two, >=50% one, below that none.
func StarsForRatio(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	ratio := float64(score) / float64(maxScore)
	switch {
	case ratio >= threeStarRatio:
		return 3
	case ratio >= twoStarRatio:
		return 2
	case ratio >= oneStarRatio:
		return 1
	default:
		return 0
	}
}

// CompositeScore returns the final score for a timed matching session.
func CompositeScore(timeSpent, moves int) int {
	score := CompositeBase
	if timeSpent < TimeCeiling {
		score += (TimeCeiling - timeSpent) * TimeWeight
	}
	if moves < MoveCeiling {
		score += (MoveCeiling - moves) * MoveWeight
	}
	return score
}

// StarsForLessons returns the star count for a scenario walkthrough.
// Completion alone earns one star; >=60% correct earns two, >=80% three.
func StarsForLessons(correct, total int) int {
	if total <= 0 {
		return 1
	}
	pct := float64(correct) / float64(total) * 100
	switch {
	case pct >= 80:
		return 3
	case pct >= 60:
		return 2
	default:
		return 1
	}
}
