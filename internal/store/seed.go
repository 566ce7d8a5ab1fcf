package store

import (
	"context"
	"fmt"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/domain"
)

// SeedDemo populates a fresh ledger with the demo learner and sample
// records the app ships with. Intended for the ephemeral backend only;
// seeding an already-populated store fails on the duplicate username.
func SeedDemo(ctx context.Context, s Store) error {
	user, err := s.CreateUser(ctx, domain.InsertUser{Username: "little_muslim", Age: 8})
	if err != nil {
		return fmt.Errorf("seeding demo user: %w", err)
	}

	progress := []domain.InsertGameProgress{
		{UserID: user.ID, GameID: "greetings", LevelsCompleted: 6, TotalLevels: 10, Stars: 3, MaxStars: 5},
		{UserID: user.ID, GameID: "table-manners", LevelsCompleted: 3, TotalLevels: 10, Stars: 2, MaxStars: 5},
		{UserID: user.ID, GameID: "respect-kindness", LevelsCompleted: 8, TotalLevels: 10, Stars: 4, MaxStars: 5},
		{UserID: user.ID, GameID: "mosque-etiquette", LevelsCompleted: 1, TotalLevels: 10, Stars: 1, MaxStars: 5},
		{UserID: user.ID, GameID: "family-respect", LevelsCompleted: 5, TotalLevels: 10, Stars: 3, MaxStars: 5},
		{UserID: user.ID, GameID: "daily-duas", LevelsCompleted: 4, TotalLevels: 10, Stars: 2, MaxStars: 5},
	}
	for _, p := range progress {
		if _, err := s.UpsertProgress(ctx, p); err != nil {
			return fmt.Errorf("seeding progress %q: %w", p.GameID, err)
		}
	}

	achievements := []domain.InsertAchievement{
		{UserID: user.ID, AchievementID: "greeting_master", Title: "Greeting Master", Description: "Completed all greeting lessons!", Stars: 3},
		{UserID: user.ID, AchievementID: "kind_helper", Title: "Kind Helper", Description: "Showed kindness 50 times!", Stars: 2},
		{UserID: user.ID, AchievementID: "daily_learner", Title: "Daily Learner", Description: "Played for 7 days in a row!", Stars: 1},
	}
	for _, a := range achievements {
		if _, err := s.CreateAchievement(ctx, a); err != nil {
			return fmt.Errorf("seeding achievement %q: %w", a.AchievementID, err)
		}
	}

	// The demo learner starts with a head-start star balance.
	if _, err := s.CreditStars(ctx, user.ID, 245); err != nil {
		return fmt.Errorf("seeding star total: %w", err)
	}

	return nil
}
