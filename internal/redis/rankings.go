package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/config"
)

// Rankings caches each learner's best score per game type in a sorted
// set for fast top-N reads. The ledger store stays authoritative; the
// cache can always be rebuilt from it.
type Rankings struct {
	client *redis.Client
	logger *slog.Logger
}

// RankEntry is one row of a game-type ranking.
type RankEntry struct {
	Rank   int `json:"rank"`
	UserID int `json:"userId"`
	Score  int `json:"score"`
}

// NewRankings creates a new rankings cache
func NewRankings(cfg *config.RedisConfig, logger *slog.Logger) (*Rankings, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Rankings{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (r *Rankings) Close() error {
	return r.client.Close()
}

// rankingKey returns the Redis key for a game type's sorted set
func (r *Rankings) rankingKey(gameType string) string {
	return fmt.Sprintf("rankings:%s:best", gameType)
}

// RecordScore updates a learner's cached best score if the new score
// beats it.
func (r *Rankings) RecordScore(ctx context.Context, gameType string, userID, score int) error {
	key := r.rankingKey(gameType)
	member := strconv.Itoa(userID)

	current, err := r.client.ZScore(ctx, key, member).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("getting current best: %w", err)
	}
	if err == nil && float64(score) <= current {
		return nil
	}

	if err := r.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(score),
		Member: member,
	}).Err(); err != nil {
		return fmt.Errorf("recording score: %w", err)
	}
	return nil
}

// TopN returns the highest-ranked learners for a game type.
func (r *Rankings) TopN(ctx context.Context, gameType string, n int) ([]RankEntry, error) {
	key := r.rankingKey(gameType)

	results, err := r.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}

	entries := make([]RankEntry, 0, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		userID, err := strconv.Atoi(member)
		if err != nil {
			r.logger.Warn("skipping malformed ranking member", "member", z.Member)
			continue
		}
		entries = append(entries, RankEntry{
			Rank:   i + 1,
			UserID: userID,
			Score:  int(z.Score),
		})
	}
	return entries, nil
}

// Count returns the number of ranked learners for a game type.
func (r *Rankings) Count(ctx context.Context, gameType string) (int64, error) {
	count, err := r.client.ZCard(ctx, r.rankingKey(gameType)).Result()
	if err != nil {
		return 0, fmt.Errorf("counting ranking: %w", err)
	}
	return count, nil
}

// ReplaceAll atomically rebuilds a game type's ranking from the given
// best scores. Used by the rebuild worker after a cold start.
func (r *Rankings) ReplaceAll(ctx context.Context, gameType string, best map[int]int) error {
	key := r.rankingKey(gameType)

	members := make([]redis.Z, 0, len(best))
	for userID, score := range best {
		members = append(members, redis.Z{
			Score:  float64(score),
			Member: strconv.Itoa(userID),
		})
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rebuilding ranking: %w", err)
	}
	return nil
}
