package domain

import (
	"fmt"
	"time"
)

// Defaults applied to a progress record when the payload leaves the
// capacity fields unset.
const (
	DefaultTotalLevels = 10
	DefaultMaxStars    = 5
)

// GameProgress is the per-game completion state for one learner.
// There is exactly one record per (userId, gameId) pair; submissions
// replace the record's fields rather than merging into them.
type GameProgress struct {
	ID              int       `json:"id"`
	UserID          int       `json:"userId"`
	GameID          string    `json:"gameId"`
	LevelsCompleted int       `json:"levelsCompleted"`
	TotalLevels     int       `json:"totalLevels"`
	Stars           int       `json:"stars"`
	MaxStars        int       `json:"maxStars"`
	LastPlayedAt    time.Time `json:"lastPlayedAt"`
}

// InsertGameProgress is the payload accepted when recording progress.
type InsertGameProgress struct {
	UserID          int    `json:"userId" validate:"required,gt=0"`
	GameID          string `json:"gameId" validate:"required,max=64"`
	LevelsCompleted int    `json:"levelsCompleted" validate:"gte=0"`
	TotalLevels     int    `json:"totalLevels" validate:"gte=0"`
	Stars           int    `json:"stars" validate:"gte=0"`
	MaxStars        int    `json:"maxStars" validate:"gte=0"`
}

// ApplyDefaults fills unset capacity fields with the standard values.
func (p *InsertGameProgress) ApplyDefaults() {
	if p.TotalLevels == 0 {
		p.TotalLevels = DefaultTotalLevels
	}
	if p.MaxStars == 0 {
		p.MaxStars = DefaultMaxStars
	}
}

// Validate checks schema constraints and the record invariants
// 0 <= levelsCompleted <= totalLevels and 0 <= stars <= maxStars.
// Call after ApplyDefaults so the capacity fields are populated.
func (p InsertGameProgress) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.LevelsCompleted > p.TotalLevels {
		return fmt.Errorf("%w: levels completed %d exceeds total levels %d",
			ErrInvalidPayload, p.LevelsCompleted, p.TotalLevels)
	}
	if p.Stars > p.MaxStars {
		return fmt.Errorf("%w: stars %d exceeds max stars %d",
			ErrInvalidPayload, p.Stars, p.MaxStars)
	}
	return nil
}
