package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/domain"
)

// MemoryStore is the ephemeral map-backed ledger backend. A single
// mutex serializes every read-modify-write sequence, so concurrent
// submissions for the same learner or the same (userId, gameId) pair
// cannot lose an update.
type MemoryStore struct {
	mu sync.RWMutex

	users        map[int]domain.User
	progress     map[string]domain.GameProgress // keyed userID-gameID
	achievements map[string][]domain.Achievement
	scores       []domain.GameScore

	nextUserID        int
	nextProgressID    int
	nextAchievementID int
	nextScoreID       int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:             make(map[int]domain.User),
		progress:          make(map[string]domain.GameProgress),
		achievements:      make(map[string][]domain.Achievement),
		nextUserID:        1,
		nextProgressID:    1,
		nextAchievementID: 1,
		nextScoreID:       1,
	}
}

// Close implements Store. Nothing to release for the in-memory backend.
func (s *MemoryStore) Close() {}

func progressKey(userID int, gameID string) string {
	return fmt.Sprintf("%d-%s", userID, gameID)
}

// GetUser returns the user with the given id.
func (s *MemoryStore) GetUser(_ context.Context, id int) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

// GetUserByUsername returns the user with the given username.
func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// CreateUser registers a new learner with a zero star total.
func (s *MemoryStore) CreateUser(_ context.Context, insert domain.InsertUser) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == insert.Username {
			return nil, domain.ErrUsernameTaken
		}
	}

	user := domain.User{
		ID:        s.nextUserID,
		Username:  insert.Username,
		Age:       insert.Age,
		CreatedAt: time.Now(),
	}
	s.nextUserID++
	s.users[user.ID] = user
	return &user, nil
}

// CreditStars atomically adds amount to the learner's star total.
func (s *MemoryStore) CreditStars(_ context.Context, userID, amount int) (*domain.User, error) {
	if amount < 0 {
		return nil, domain.ErrInvalidStars
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.TotalStars += amount
	s.users[userID] = user
	return &user, nil
}

// ListProgress returns every progress record for the learner.
func (s *MemoryStore) ListProgress(_ context.Context, userID int) ([]domain.GameProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.GameProgress
	for _, p := range s.progress {
		if p.UserID == userID {
			records = append(records, p)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// GetProgress returns the record for (userId, gameId).
func (s *MemoryStore) GetProgress(_ context.Context, userID int, gameID string) (*domain.GameProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[progressKey(userID, gameID)]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	return &p, nil
}

// UpsertProgress replaces or inserts the record for (userId, gameId).
func (s *MemoryStore) UpsertProgress(_ context.Context, insert domain.InsertGameProgress) (*domain.GameProgress, error) {
	insert.ApplyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	key := progressKey(insert.UserID, insert.GameID)
	now := time.Now()

	if existing, ok := s.progress[key]; ok {
		existing.LevelsCompleted = insert.LevelsCompleted
		existing.TotalLevels = insert.TotalLevels
		existing.Stars = insert.Stars
		existing.MaxStars = insert.MaxStars
		existing.LastPlayedAt = now
		s.progress[key] = existing
		return &existing, nil
	}

	record := domain.GameProgress{
		ID:              s.nextProgressID,
		UserID:          insert.UserID,
		GameID:          insert.GameID,
		LevelsCompleted: insert.LevelsCompleted,
		TotalLevels:     insert.TotalLevels,
		Stars:           insert.Stars,
		MaxStars:        insert.MaxStars,
		LastPlayedAt:    now,
	}
	s.nextProgressID++
	s.progress[key] = record
	return &record, nil
}

// ListAchievements returns every unlock for the learner.
func (s *MemoryStore) ListAchievements(_ context.Context, userID int) ([]domain.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.Achievement
	for _, unlocks := range s.achievements {
		for _, a := range unlocks {
			if a.UserID == userID {
				records = append(records, a)
			}
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// GetAchievement returns the earliest unlock of achievementID for the
// learner, if any.
func (s *MemoryStore) GetAchievement(_ context.Context, userID int, achievementID string) (*domain.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := fmt.Sprintf("%d-%s", userID, achievementID)
	unlocks, ok := s.achievements[key]
	if !ok || len(unlocks) == 0 {
		return nil, domain.ErrAchievementNotFound
	}
	a := unlocks[0]
	return &a, nil
}

// CreateAchievement records an unlock and stamps it with the current time.
func (s *MemoryStore) CreateAchievement(_ context.Context, insert domain.InsertAchievement) (*domain.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := domain.Achievement{
		ID:            s.nextAchievementID,
		UserID:        insert.UserID,
		AchievementID: insert.AchievementID,
		Title:         insert.Title,
		Description:   insert.Description,
		Stars:         insert.Stars,
		UnlockedAt:    time.Now(),
	}
	s.nextAchievementID++

	key := fmt.Sprintf("%d-%s", insert.UserID, insert.AchievementID)
	s.achievements[key] = append(s.achievements[key], record)
	return &record, nil
}

// ListScores returns the learner's play sessions, optionally filtered by
// game type, in insertion order.
func (s *MemoryStore) ListScores(_ context.Context, userID int, gameType string) ([]domain.GameScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.GameScore
	for _, score := range s.scores {
		if score.UserID != userID {
			continue
		}
		if gameType != "" && score.GameType != gameType {
			continue
		}
		records = append(records, score)
	}
	return records, nil
}

// CreateScore appends a play session record.
func (s *MemoryStore) CreateScore(_ context.Context, insert domain.InsertGameScore) (*domain.GameScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := domain.GameScore{
		ID:        s.nextScoreID,
		UserID:    insert.UserID,
		GameType:  insert.GameType,
		Score:     insert.Score,
		MaxScore:  insert.MaxScore,
		TimeSpent: insert.TimeSpent,
		PlayedAt:  time.Now(),
	}
	s.nextScoreID++
	s.scores = append(s.scores, record)
	return &record, nil
}

// BestScore returns the learner's highest-scoring session for a game
// type, or nil when there are none. A later session with an equal score
// does not displace the earlier best.
func (s *MemoryStore) BestScore(_ context.Context, userID int, gameType string) (*domain.GameScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.GameScore
	for i := range s.scores {
		score := s.scores[i]
		if score.UserID != userID || score.GameType != gameType {
			continue
		}
		if best == nil || score.Score > best.Score {
			b := score
			best = &b
		}
	}
	return best, nil
}

// BestScoresByGame returns each learner's best score for a game type.
func (s *MemoryStore) BestScoresByGame(_ context.Context, gameType string) (map[int]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := make(map[int]int)
	for _, score := range s.scores {
		if score.GameType != gameType {
			continue
		}
		if current, ok := best[score.UserID]; !ok || score.Score > current {
			best[score.UserID] = score.Score
		}
	}
	return best, nil
}

// ListGameTypes returns the distinct game types with recorded sessions.
func (s *MemoryStore) ListGameTypes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, score := range s.scores {
		if !seen[score.GameType] {
			seen[score.GameType] = true
			types = append(types, score.GameType)
		}
	}
	sort.Strings(types)
	return types, nil
}
