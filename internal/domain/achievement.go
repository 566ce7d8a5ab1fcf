package domain

import "time"

// Achievement is a named unlock event tied to one learner.
type Achievement struct {
	ID            int       `json:"id"`
	UserID        int       `json:"userId"`
	AchievementID string    `json:"achievementId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Stars         int       `json:"stars"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

// InsertAchievement is the payload accepted when unlocking an achievement.
type InsertAchievement struct {
	UserID        int    `json:"userId" validate:"required,gt=0"`
	AchievementID string `json:"achievementId" validate:"required,max=64"`
	Title         string `json:"title" validate:"required,max=128"`
	Description   string `json:"description" validate:"required,max=512"`
	Stars         int    `json:"stars" validate:"gte=0"`
}

// Validate checks the payload against its schema constraints.
func (a InsertAchievement) Validate() error {
	return validateStruct(a)
}
