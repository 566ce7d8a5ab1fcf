// Package store defines the ledger storage contract and its in-memory
// backend. The durable backend lives in internal/postgres; both satisfy
// the same interface and are selected at construction time.
package store

import (
	"context"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/domain"
)

// Store is the backend-agnostic contract for the progress and reward
// ledger. It is the sole owner of the four record kinds; nothing outside
// a Store implementation mutates them.
//
// Read operations return domain not-found errors when a keyed record is
// absent, except BestScore, which reports an expected absence as
// (nil, nil).
type Store interface {
	// User operations
	GetUser(ctx context.Context, id int) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, insert domain.InsertUser) (*domain.User, error)
	// CreditStars atomically adds amount to the user's star total and
	// returns the updated user. This is the only sanctioned path for
	// mutating TotalStars. A negative amount fails with ErrInvalidStars.
	CreditStars(ctx context.Context, userID, amount int) (*domain.User, error)

	// Game progress operations
	ListProgress(ctx context.Context, userID int) ([]domain.GameProgress, error)
	GetProgress(ctx context.Context, userID int, gameID string) (*domain.GameProgress, error)
	// UpsertProgress replaces the record for (userId, gameId) or inserts
	// it, refreshing lastPlayedAt either way. It never credits stars;
	// that is the service's responsibility.
	UpsertProgress(ctx context.Context, insert domain.InsertGameProgress) (*domain.GameProgress, error)

	// Achievement operations
	ListAchievements(ctx context.Context, userID int) ([]domain.Achievement, error)
	GetAchievement(ctx context.Context, userID int, achievementID string) (*domain.Achievement, error)
	CreateAchievement(ctx context.Context, insert domain.InsertAchievement) (*domain.Achievement, error)

	// Score operations
	ListScores(ctx context.Context, userID int, gameType string) ([]domain.GameScore, error)
	CreateScore(ctx context.Context, insert domain.InsertGameScore) (*domain.GameScore, error)
	// BestScore returns the record with the highest score for the game
	// type, or nil when the learner has no sessions yet. On ties the
	// earliest record is kept.
	BestScore(ctx context.Context, userID int, gameType string) (*domain.GameScore, error)

	// Ranking support
	BestScoresByGame(ctx context.Context, gameType string) (map[int]int, error)
	ListGameTypes(ctx context.Context) ([]string, error)

	Close()
}
