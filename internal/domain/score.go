package domain

import (
	"fmt"
	"time"
)

// GameScore is one immutable entry per play session of a scored game.
// Sessions are always appended; a learner accumulates many records per
// game type.
type GameScore struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	GameType  string    `json:"gameType"`
	Score     int       `json:"score"`
	MaxScore  int       `json:"maxScore"`
	TimeSpent int       `json:"timeSpent"` // seconds
	PlayedAt  time.Time `json:"playedAt"`
}

// InsertGameScore is the payload accepted when recording a play session.
type InsertGameScore struct {
	UserID    int    `json:"userId" validate:"required,gt=0"`
	GameType  string `json:"gameType" validate:"required,max=64"`
	Score     int    `json:"score" validate:"gte=0"`
	MaxScore  int    `json:"maxScore" validate:"required,gt=0"`
	TimeSpent int    `json:"timeSpent" validate:"gte=0"`
}

// Validate checks schema constraints and the 0 <= score <= maxScore
// invariant.
func (s InsertGameScore) Validate() error {
	if err := validateStruct(s); err != nil {
		return err
	}
	if s.Score > s.MaxScore {
		return fmt.Errorf("%w: score %d exceeds max score %d",
			ErrInvalidPayload, s.Score, s.MaxScore)
	}
	return nil
}

// SubmittedScore is the response shape for a score submission: the stored
// record plus the star count derived from it.
type SubmittedScore struct {
	GameScore
	StarsEarned int `json:"starsEarned"`
}
