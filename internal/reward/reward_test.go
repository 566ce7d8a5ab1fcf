package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStarsForRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		score    int
		maxScore int
		want     int
	}{
		{"perfect score", 10, 10, 3},
		{"exactly ninety percent", 9, 10, 3},
		{"just under ninety percent", 89, 100, 2},
		{"exactly seventy percent", 7, 10, 2},
		{"just under seventy percent", 69, 100, 1},
		{"exactly fifty percent", 5, 10, 1},
		{"just under fifty percent", 49, 100, 0},
		{"zero score", 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StarsForRatio(tt.score, tt.maxScore))
		})
	}
}

func TestStarsForRatioDegenerateMax(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, StarsForRatio(5, 0), "zero max score should earn no stars")
	assert.Equal(t, 0, StarsForRatio(5, -1), "negative max score should earn no stars")
}

func TestCompositeScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		timeSpent int
		moves     int
		want      int
	}{
		{"instant flawless session", 0, 0, CompositeMax},
		{"both ceilings reached", TimeCeiling, MoveCeiling, CompositeBase},
		{"over both ceilings", TimeCeiling + 100, MoveCeiling + 5, CompositeBase},
		{"time bonus only", 100, MoveCeiling, CompositeBase + 200*TimeWeight},
		{"move bonus only", TimeCeiling, 12, CompositeBase + 8*MoveWeight},
		{"mixed bonuses", 240, 16, CompositeBase + 60*TimeWeight + 4*MoveWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompositeScore(tt.timeSpent, tt.moves))
		})
	}
}

func TestCompositeScoreNeverExceedsMax(t *testing.T) {
	t.Parallel()

	for timeSpent := 0; timeSpent <= TimeCeiling+10; timeSpent += 30 {
		for moves := 0; moves <= MoveCeiling+5; moves += 5 {
			score := CompositeScore(timeSpent, moves)
			assert.GreaterOrEqual(t, score, CompositeBase)
			assert.LessOrEqual(t, score, CompositeMax)
		}
	}
}

func TestStarsForLessons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		correct int
		total   int
		want    int
	}{
		{"all correct", 10, 10, 3},
		{"exactly eighty percent", 8, 10, 3},
		{"just under eighty percent", 79, 100, 2},
		{"exactly sixty percent", 6, 10, 2},
		{"just under sixty percent", 59, 100, 1},
		{"none correct still earns completion star", 0, 10, 1},
		{"empty walkthrough earns completion star", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StarsForLessons(tt.correct, tt.total))
		})
	}
}
