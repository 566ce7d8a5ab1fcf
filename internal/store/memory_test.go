package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/domain"
)

func newTestUser(t *testing.T, s *MemoryStore, username string) *domain.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), domain.InsertUser{
		Username: username,
		Age:      8,
	})
	require.NoError(t, err)
	return user
}

func TestCreateUser(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	user := newTestUser(t, s, "little_muslim")
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "little_muslim", user.Username)
	assert.Equal(t, 0, user.TotalStars, "new users start with zero stars")
	assert.False(t, user.CreatedAt.IsZero())

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)

	byName, err := s.GetUserByUsername(ctx, "little_muslim")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()

	newTestUser(t, s, "little_muslim")
	_, err := s.CreateUser(context.Background(), domain.InsertUser{Username: "little_muslim", Age: 9})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestGetUserNotFound(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()

	_, err := s.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.GetUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreditStars(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	updated, err := s.CreditStars(ctx, user.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.TotalStars)

	updated, err = s.CreditStars(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TotalStars)

	// Crediting zero is a no-op but not an error
	updated, err = s.CreditStars(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TotalStars)
}

func TestCreditStarsRejectsNegative(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	_, err := s.CreditStars(ctx, user.ID, 5)
	require.NoError(t, err)

	_, err = s.CreditStars(ctx, user.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidStars)

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalStars, "rejected credit must not change the total")
}

func TestCreditStarsUnknownUser(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()

	_, err := s.CreditStars(context.Background(), 99, 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreditStarsConcurrent(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	const workers = 20
	const perWorker = 10

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := s.CreditStars(ctx, user.ID, 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, got.TotalStars, "every concurrent credit must land")
}

func TestUpsertProgress(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	first, err := s.UpsertProgress(ctx, domain.InsertGameProgress{
		UserID:          user.ID,
		GameID:          "greetings",
		LevelsCompleted: 3,
		TotalLevels:     10,
		Stars:           2,
		MaxStars:        5,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, first.LevelsCompleted)
	assert.False(t, first.LastPlayedAt.IsZero())

	second, err := s.UpsertProgress(ctx, domain.InsertGameProgress{
		UserID:          user.ID,
		GameID:          "greetings",
		LevelsCompleted: 6,
		TotalLevels:     10,
		Stars:           3,
		MaxStars:        5,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "upsert must replace, not duplicate")
	assert.Equal(t, 6, second.LevelsCompleted)

	records, err := s.ListProgress(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 6, records[0].LevelsCompleted)
}

func TestUpsertProgressFillsDefaults(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	user := newTestUser(t, s, "little_muslim")

	record, err := s.UpsertProgress(context.Background(), domain.InsertGameProgress{
		UserID:          user.ID,
		GameID:          "daily-duas",
		LevelsCompleted: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTotalLevels, record.TotalLevels)
	assert.Equal(t, domain.DefaultMaxStars, record.MaxStars)
	assert.Equal(t, 0, record.Stars)
}

func TestGetProgressNotFound(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()

	_, err := s.GetProgress(context.Background(), 1, "greetings")
	assert.ErrorIs(t, err, domain.ErrProgressNotFound)
}

func TestAchievements(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	_, err := s.GetAchievement(ctx, user.ID, "greeting_master")
	assert.ErrorIs(t, err, domain.ErrAchievementNotFound)

	unlock, err := s.CreateAchievement(ctx, domain.InsertAchievement{
		UserID:        user.ID,
		AchievementID: "greeting_master",
		Title:         "Greeting Master",
		Description:   "Completed all greeting lessons",
		Stars:         3,
	})
	require.NoError(t, err)
	assert.False(t, unlock.UnlockedAt.IsZero())

	got, err := s.GetAchievement(ctx, user.ID, "greeting_master")
	require.NoError(t, err)
	assert.Equal(t, unlock.ID, got.ID)

	records, err := s.ListAchievements(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "greeting_master", records[0].AchievementID)
}

func TestGetAchievementReturnsEarliestUnlock(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	insert := domain.InsertAchievement{
		UserID:        user.ID,
		AchievementID: "kind_helper",
		Title:         "Kind Helper",
		Description:   "Helped a friend",
		Stars:         2,
	}

	first, err := s.CreateAchievement(ctx, insert)
	require.NoError(t, err)
	_, err = s.CreateAchievement(ctx, insert)
	require.NoError(t, err)

	got, err := s.GetAchievement(ctx, user.ID, "kind_helper")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	records, err := s.ListAchievements(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2, "repeat unlocks are kept as separate records")
}

func submitScore(t *testing.T, s *MemoryStore, userID int, gameType string, score, maxScore int) *domain.GameScore {
	t.Helper()
	record, err := s.CreateScore(context.Background(), domain.InsertGameScore{
		UserID:    userID,
		GameType:  gameType,
		Score:     score,
		MaxScore:  maxScore,
		TimeSpent: 60,
	})
	require.NoError(t, err)
	return record
}

func TestBestScore(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	submitScore(t, s, user.ID, "memory-game", 3, 5)
	submitScore(t, s, user.ID, "memory-game", 4, 5)
	submitScore(t, s, user.ID, "memory-game", 2, 5)

	best, err := s.BestScore(ctx, user.ID, "memory-game")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 4, best.Score)
}

func TestBestScoreTieKeepsEarliest(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	first := submitScore(t, s, user.ID, "memory-game", 4, 5)
	submitScore(t, s, user.ID, "memory-game", 4, 5)

	best, err := s.BestScore(ctx, user.ID, "memory-game")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, first.ID, best.ID, "a later equal score must not displace the earlier best")
}

func TestBestScoreAbsent(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	user := newTestUser(t, s, "little_muslim")

	best, err := s.BestScore(context.Background(), user.ID, "memory-game")
	require.NoError(t, err)
	assert.Nil(t, best, "no sessions means no best score, not an error")
}

func TestListScoresFiltersByGameType(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	submitScore(t, s, user.ID, "memory-game", 1200, 1800)
	submitScore(t, s, user.ID, "greetings", 80, 100)
	submitScore(t, s, user.ID, "memory-game", 1500, 1800)

	all, err := s.ListScores(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	memory, err := s.ListScores(ctx, user.ID, "memory-game")
	require.NoError(t, err)
	assert.Len(t, memory, 2)
}

func TestBestScoresByGame(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	alice := newTestUser(t, s, "alice")
	bilal := newTestUser(t, s, "bilal")

	submitScore(t, s, alice.ID, "memory-game", 1200, 1800)
	submitScore(t, s, alice.ID, "memory-game", 1500, 1800)
	submitScore(t, s, bilal.ID, "memory-game", 1400, 1800)
	submitScore(t, s, bilal.ID, "greetings", 90, 100)

	best, err := s.BestScoresByGame(ctx, "memory-game")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{alice.ID: 1500, bilal.ID: 1400}, best)

	types, err := s.ListGameTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"greetings", "memory-game"}, types)
}

func TestCreateScoreConcurrent(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "little_muslim")

	const sessions = 50
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.CreateScore(ctx, domain.InsertGameScore{
				UserID:    user.ID,
				GameType:  "memory-game",
				Score:     n,
				MaxScore:  sessions,
				TimeSpent: 30,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := s.ListScores(ctx, user.ID, "memory-game")
	require.NoError(t, err)
	assert.Len(t, records, sessions, "every concurrent submission must be recorded")

	seen := make(map[int]bool)
	for _, r := range records {
		assert.False(t, seen[r.ID], "score ids must be unique")
		seen[r.ID] = true
	}
}

func TestSeedDemo(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, SeedDemo(ctx, s))

	user, err := s.GetUserByUsername(ctx, "little_muslim")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, 8, user.Age)
	assert.Equal(t, 245, user.TotalStars)

	progress, err := s.ListProgress(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, progress, 6)

	achievements, err := s.ListAchievements(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, achievements, 3)
}
