package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/config"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/domain"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/store"
)

// uniqueViolationCode is the PostgreSQL error code for a unique
// constraint violation.
const uniqueViolationCode = "23505"

// Repository is the durable PostgreSQL-backed ledger store. CreditStars
// and UpsertProgress are expressed as single atomic statements, so
// concurrent submissions cannot interleave and lose an update.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ store.Store = (*Repository)(nil)

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			age INT NOT NULL,
			total_stars INT NOT NULL DEFAULT 0 CHECK (total_stars >= 0),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS game_progress (
			id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(id),
			game_id TEXT NOT NULL,
			levels_completed INT NOT NULL DEFAULT 0,
			total_levels INT NOT NULL DEFAULT 10,
			stars INT NOT NULL DEFAULT 0,
			max_stars INT NOT NULL DEFAULT 5,
			last_played_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, game_id),
			CHECK (levels_completed >= 0 AND levels_completed <= total_levels),
			CHECK (stars >= 0 AND stars <= max_stars)
		)`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(id),
			achievement_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			stars INT NOT NULL DEFAULT 0 CHECK (stars >= 0),
			unlocked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS game_scores (
			id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(id),
			game_type TEXT NOT NULL,
			score INT NOT NULL,
			max_score INT NOT NULL,
			time_spent INT NOT NULL,
			played_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (score >= 0 AND score <= max_score),
			CHECK (time_spent >= 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_achievements_user ON achievements(user_id, achievement_id)`,
		`CREATE INDEX IF NOT EXISTS idx_game_scores_user_type ON game_scores(user_id, game_type, score DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// GetUser retrieves a user by id
func (r *Repository) GetUser(ctx context.Context, id int) (*domain.User, error) {
	query := `
		SELECT id, username, age, total_stars, created_at
		FROM users
		WHERE id = $1
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Age,
		&user.TotalStars,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, age, total_stars, created_at
		FROM users
		WHERE username = $1
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Age,
		&user.TotalStars,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return &user, nil
}

// CreateUser registers a new learner
func (r *Repository) CreateUser(ctx context.Context, insert domain.InsertUser) (*domain.User, error) {
	query := `
		INSERT INTO users (username, age)
		VALUES ($1, $2)
		RETURNING id, username, age, total_stars, created_at
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, insert.Username, insert.Age).Scan(
		&user.ID,
		&user.Username,
		&user.Age,
		&user.TotalStars,
		&user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &user, nil
}

// CreditStars adds amount to the user's star total as a single atomic
// increment and returns the updated user.
func (r *Repository) CreditStars(ctx context.Context, userID, amount int) (*domain.User, error) {
	if amount < 0 {
		return nil, domain.ErrInvalidStars
	}

	query := `
		UPDATE users
		SET total_stars = total_stars + $2
		WHERE id = $1
		RETURNING id, username, age, total_stars, created_at
	`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, userID, amount).Scan(
		&user.ID,
		&user.Username,
		&user.Age,
		&user.TotalStars,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("crediting stars: %w", err)
	}
	return &user, nil
}

// ListProgress retrieves all progress records for a learner
func (r *Repository) ListProgress(ctx context.Context, userID int) ([]domain.GameProgress, error) {
	query := `
		SELECT id, user_id, game_id, levels_completed, total_levels, stars, max_stars, last_played_at
		FROM game_progress
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing progress: %w", err)
	}
	defer rows.Close()

	var records []domain.GameProgress
	for rows.Next() {
		var p domain.GameProgress
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.GameID,
			&p.LevelsCompleted,
			&p.TotalLevels,
			&p.Stars,
			&p.MaxStars,
			&p.LastPlayedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning progress: %w", err)
		}
		records = append(records, p)
	}
	return records, nil
}

// GetProgress retrieves the record for (userId, gameId)
func (r *Repository) GetProgress(ctx context.Context, userID int, gameID string) (*domain.GameProgress, error) {
	query := `
		SELECT id, user_id, game_id, levels_completed, total_levels, stars, max_stars, last_played_at
		FROM game_progress
		WHERE user_id = $1 AND game_id = $2
	`
	var p domain.GameProgress
	err := r.pool.QueryRow(ctx, query, userID, gameID).Scan(
		&p.ID,
		&p.UserID,
		&p.GameID,
		&p.LevelsCompleted,
		&p.TotalLevels,
		&p.Stars,
		&p.MaxStars,
		&p.LastPlayedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, fmt.Errorf("getting progress: %w", err)
	}
	return &p, nil
}

// UpsertProgress inserts or replaces the record for (userId, gameId) in
// a single statement, refreshing last_played_at either way.
func (r *Repository) UpsertProgress(ctx context.Context, insert domain.InsertGameProgress) (*domain.GameProgress, error) {
	insert.ApplyDefaults()

	query := `
		INSERT INTO game_progress (user_id, game_id, levels_completed, total_levels, stars, max_stars, last_played_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, game_id)
		DO UPDATE SET
			levels_completed = $3,
			total_levels = $4,
			stars = $5,
			max_stars = $6,
			last_played_at = CURRENT_TIMESTAMP
		RETURNING id, user_id, game_id, levels_completed, total_levels, stars, max_stars, last_played_at
	`
	var p domain.GameProgress
	err := r.pool.QueryRow(ctx, query,
		insert.UserID,
		insert.GameID,
		insert.LevelsCompleted,
		insert.TotalLevels,
		insert.Stars,
		insert.MaxStars,
	).Scan(
		&p.ID,
		&p.UserID,
		&p.GameID,
		&p.LevelsCompleted,
		&p.TotalLevels,
		&p.Stars,
		&p.MaxStars,
		&p.LastPlayedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting progress: %w", err)
	}
	return &p, nil
}

// ListAchievements retrieves all unlocks for a learner
func (r *Repository) ListAchievements(ctx context.Context, userID int) ([]domain.Achievement, error) {
	query := `
		SELECT id, user_id, achievement_id, title, description, stars, unlocked_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing achievements: %w", err)
	}
	defer rows.Close()

	var records []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.AchievementID,
			&a.Title,
			&a.Description,
			&a.Stars,
			&a.UnlockedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning achievement: %w", err)
		}
		records = append(records, a)
	}
	return records, nil
}

// GetAchievement retrieves the earliest unlock of achievementID for a learner
func (r *Repository) GetAchievement(ctx context.Context, userID int, achievementID string) (*domain.Achievement, error) {
	query := `
		SELECT id, user_id, achievement_id, title, description, stars, unlocked_at
		FROM achievements
		WHERE user_id = $1 AND achievement_id = $2
		ORDER BY id
		LIMIT 1
	`
	var a domain.Achievement
	err := r.pool.QueryRow(ctx, query, userID, achievementID).Scan(
		&a.ID,
		&a.UserID,
		&a.AchievementID,
		&a.Title,
		&a.Description,
		&a.Stars,
		&a.UnlockedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAchievementNotFound
		}
		return nil, fmt.Errorf("getting achievement: %w", err)
	}
	return &a, nil
}

// CreateAchievement records an unlock
func (r *Repository) CreateAchievement(ctx context.Context, insert domain.InsertAchievement) (*domain.Achievement, error) {
	query := `
		INSERT INTO achievements (user_id, achievement_id, title, description, stars, unlocked_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, user_id, achievement_id, title, description, stars, unlocked_at
	`
	var a domain.Achievement
	err := r.pool.QueryRow(ctx, query,
		insert.UserID,
		insert.AchievementID,
		insert.Title,
		insert.Description,
		insert.Stars,
	).Scan(
		&a.ID,
		&a.UserID,
		&a.AchievementID,
		&a.Title,
		&a.Description,
		&a.Stars,
		&a.UnlockedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating achievement: %w", err)
	}
	return &a, nil
}

// ListScores retrieves a learner's play sessions, optionally filtered by game type
func (r *Repository) ListScores(ctx context.Context, userID int, gameType string) ([]domain.GameScore, error) {
	query := `
		SELECT id, user_id, game_type, score, max_score, time_spent, played_at
		FROM game_scores
		WHERE user_id = $1 AND ($2 = '' OR game_type = $2)
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, userID, gameType)
	if err != nil {
		return nil, fmt.Errorf("listing scores: %w", err)
	}
	defer rows.Close()

	var records []domain.GameScore
	for rows.Next() {
		var s domain.GameScore
		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.GameType,
			&s.Score,
			&s.MaxScore,
			&s.TimeSpent,
			&s.PlayedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		records = append(records, s)
	}
	return records, nil
}

// CreateScore appends a play session record
func (r *Repository) CreateScore(ctx context.Context, insert domain.InsertGameScore) (*domain.GameScore, error) {
	query := `
		INSERT INTO game_scores (user_id, game_type, score, max_score, time_spent, played_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, user_id, game_type, score, max_score, time_spent, played_at
	`
	var s domain.GameScore
	err := r.pool.QueryRow(ctx, query,
		insert.UserID,
		insert.GameType,
		insert.Score,
		insert.MaxScore,
		insert.TimeSpent,
	).Scan(
		&s.ID,
		&s.UserID,
		&s.GameType,
		&s.Score,
		&s.MaxScore,
		&s.TimeSpent,
		&s.PlayedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating score: %w", err)
	}
	return &s, nil
}

// BestScore retrieves the highest-scoring session for (userId, gameType),
// or nil when there are none. Ordering by id keeps the earliest record as
// best on equal scores.
func (r *Repository) BestScore(ctx context.Context, userID int, gameType string) (*domain.GameScore, error) {
	query := `
		SELECT id, user_id, game_type, score, max_score, time_spent, played_at
		FROM game_scores
		WHERE user_id = $1 AND game_type = $2
		ORDER BY score DESC, id ASC
		LIMIT 1
	`
	var s domain.GameScore
	err := r.pool.QueryRow(ctx, query, userID, gameType).Scan(
		&s.ID,
		&s.UserID,
		&s.GameType,
		&s.Score,
		&s.MaxScore,
		&s.TimeSpent,
		&s.PlayedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting best score: %w", err)
	}
	return &s, nil
}

// BestScoresByGame returns each learner's best score for a game type
func (r *Repository) BestScoresByGame(ctx context.Context, gameType string) (map[int]int, error) {
	query := `
		SELECT user_id, MAX(score)
		FROM game_scores
		WHERE game_type = $1
		GROUP BY user_id
	`
	rows, err := r.pool.Query(ctx, query, gameType)
	if err != nil {
		return nil, fmt.Errorf("getting best scores: %w", err)
	}
	defer rows.Close()

	best := make(map[int]int)
	for rows.Next() {
		var userID, score int
		if err := rows.Scan(&userID, &score); err != nil {
			return nil, fmt.Errorf("scanning best score: %w", err)
		}
		best[userID] = score
	}
	return best, nil
}

// ListGameTypes returns the distinct game types with recorded sessions
func (r *Repository) ListGameTypes(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT game_type FROM game_scores ORDER BY game_type`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing game types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var gameType string
		if err := rows.Scan(&gameType); err != nil {
			return nil, fmt.Errorf("scanning game type: %w", err)
		}
		types = append(types, gameType)
	}
	return types, nil
}
