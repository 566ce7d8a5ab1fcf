package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/config"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/domain"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/redis"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/reward"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/store"
)

// Star credit sources, used in reward event notifications
const (
	SourceProgress    = "progress"
	SourceAchievement = "achievement"
	SourceScore       = "score"
)

// Notifier pushes reward events to connected clients. All methods are
// fire-and-forget.
type Notifier interface {
	NotifyStarsAwarded(userID, stars, totalStars int, source string)
	NotifyAchievementUnlocked(achievement domain.Achievement)
	NotifyScoreRecorded(score domain.GameScore, starsEarned int)
}

// LedgerService provides the use-cases the presentation layer needs:
// fetching and recording progress, achievements, and scores. It is the
// only component that triggers star crediting; each positive star amount
// produced by a submission is credited exactly once.
type LedgerService struct {
	store    store.Store
	rankings *redis.Rankings // optional, may be nil
	notifier Notifier        // optional, may be nil
	cfg      *config.LedgerConfig
	logger   *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(st store.Store, cfg *config.LedgerConfig, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  st,
		cfg:    cfg,
		logger: logger,
	}
}

// SetRankings attaches the optional best-score rankings cache.
func (s *LedgerService) SetRankings(rankings *redis.Rankings) {
	s.rankings = rankings
}

// SetNotifier attaches the optional reward event notifier.
func (s *LedgerService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// GetUser returns the learner with the given id.
func (s *LedgerService) GetUser(ctx context.Context, id int) (*domain.User, error) {
	return s.store.GetUser(ctx, id)
}

// GetUserByUsername returns the learner with the given username.
func (s *LedgerService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}

// RegisterUser validates and creates a new learner.
func (s *LedgerService) RegisterUser(ctx context.Context, insert domain.InsertUser) (*domain.User, error) {
	if err := insert.Validate(); err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, insert)
}

// Progress returns every progress record for the learner.
func (s *LedgerService) Progress(ctx context.Context, userID int) ([]domain.GameProgress, error) {
	return s.store.ListProgress(ctx, userID)
}

// SubmitProgress validates and upserts a progress record, crediting any
// stars the submission carries to the learner's total.
func (s *LedgerService) SubmitProgress(ctx context.Context, insert domain.InsertGameProgress) (*domain.GameProgress, error) {
	insert.ApplyDefaults()
	if err := insert.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, insert.UserID); err != nil {
		return nil, err
	}

	record, err := s.store.UpsertProgress(ctx, insert)
	if err != nil {
		return nil, fmt.Errorf("upserting progress: %w", err)
	}

	if insert.Stars > 0 {
		user, err := s.store.CreditStars(ctx, insert.UserID, insert.Stars)
		if err != nil {
			return nil, fmt.Errorf("crediting progress stars: %w", err)
		}
		if s.notifier != nil {
			s.notifier.NotifyStarsAwarded(user.ID, insert.Stars, user.TotalStars, SourceProgress)
		}
	}

	return record, nil
}

// Achievements returns every unlock for the learner.
func (s *LedgerService) Achievements(ctx context.Context, userID int) ([]domain.Achievement, error) {
	return s.store.ListAchievements(ctx, userID)
}

// UnlockAchievement validates and records an achievement unlock,
// crediting its stars. When repeat unlocks are disabled and the learner
// already holds the achievement, the existing record is returned and
// nothing is credited.
func (s *LedgerService) UnlockAchievement(ctx context.Context, insert domain.InsertAchievement) (*domain.Achievement, error) {
	if err := insert.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, insert.UserID); err != nil {
		return nil, err
	}

	if !s.cfg.RepeatUnlocksAllowed() {
		existing, err := s.store.GetAchievement(ctx, insert.UserID, insert.AchievementID)
		if err == nil {
			return existing, nil
		}
		if !domain.IsNotFoundError(err) {
			return nil, fmt.Errorf("checking existing unlock: %w", err)
		}
	}

	record, err := s.store.CreateAchievement(ctx, insert)
	if err != nil {
		return nil, fmt.Errorf("creating achievement: %w", err)
	}

	if insert.Stars > 0 {
		user, err := s.store.CreditStars(ctx, insert.UserID, insert.Stars)
		if err != nil {
			return nil, fmt.Errorf("crediting achievement stars: %w", err)
		}
		if s.notifier != nil {
			s.notifier.NotifyStarsAwarded(user.ID, insert.Stars, user.TotalStars, SourceAchievement)
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyAchievementUnlocked(*record)
	}

	return record, nil
}

// Scores returns the learner's play sessions, optionally filtered by
// game type.
func (s *LedgerService) Scores(ctx context.Context, userID int, gameType string) ([]domain.GameScore, error) {
	return s.store.ListScores(ctx, userID, gameType)
}

// SubmitScore validates and appends a play session, derives its star
// reward from the score ratio, and credits the result.
func (s *LedgerService) SubmitScore(ctx context.Context, insert domain.InsertGameScore) (*domain.SubmittedScore, error) {
	if err := insert.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, insert.UserID); err != nil {
		return nil, err
	}

	record, err := s.store.CreateScore(ctx, insert)
	if err != nil {
		return nil, fmt.Errorf("creating score: %w", err)
	}

	stars := reward.StarsForRatio(record.Score, record.MaxScore)
	if stars > 0 {
		user, err := s.store.CreditStars(ctx, insert.UserID, stars)
		if err != nil {
			return nil, fmt.Errorf("crediting score stars: %w", err)
		}
		if s.notifier != nil {
			s.notifier.NotifyStarsAwarded(user.ID, stars, user.TotalStars, SourceScore)
		}
	}

	if s.rankings != nil {
		if err := s.rankings.RecordScore(ctx, record.GameType, record.UserID, record.Score); err != nil {
			s.logger.Warn("failed to update rankings cache", "error", err)
			// The store stays authoritative; the cache catches up on rebuild
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyScoreRecorded(*record, stars)
	}

	return &domain.SubmittedScore{GameScore: *record, StarsEarned: stars}, nil
}

// SubmitScoreBatch records multiple play sessions, continuing past
// individual failures.
func (s *LedgerService) SubmitScoreBatch(ctx context.Context, inserts []domain.InsertGameScore) error {
	for _, insert := range inserts {
		if _, err := s.SubmitScore(ctx, insert); err != nil {
			s.logger.Error("failed to submit score in batch",
				"user_id", insert.UserID,
				"game_type", insert.GameType,
				"error", err,
			)
			// Continue processing other scores
		}
	}
	return nil
}

// BestScore returns the learner's highest-scoring session for a game
// type, or nil when there are none.
func (s *LedgerService) BestScore(ctx context.Context, userID int, gameType string) (*domain.GameScore, error) {
	return s.store.BestScore(ctx, userID, gameType)
}

// TopScores returns the highest best-scores across learners for a game
// type, served from the rankings cache when attached and recomputed from
// the store otherwise.
func (s *LedgerService) TopScores(ctx context.Context, gameType string, limit int) ([]redis.RankEntry, error) {
	if limit <= 0 || limit > s.cfg.RankingsLimit {
		limit = s.cfg.RankingsLimit
	}

	if s.rankings != nil {
		return s.rankings.TopN(ctx, gameType, limit)
	}

	best, err := s.store.BestScoresByGame(ctx, gameType)
	if err != nil {
		return nil, fmt.Errorf("computing rankings: %w", err)
	}

	entries := make([]redis.RankEntry, 0, len(best))
	for userID, score := range best {
		entries = append(entries, redis.RankEntry{UserID: userID, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
