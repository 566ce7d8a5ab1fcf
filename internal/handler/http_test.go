package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/config"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/domain"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/service"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/store"
)

func newTestServer(t *testing.T) (http.Handler, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.LedgerConfig{DefaultUserID: 1, RankingsLimit: 100}
	svc := service.NewLedgerService(st, cfg, logger)
	h := NewHandler(svc, nil, cfg, logger)
	return h.Router(), st
}

func seedUser(t *testing.T, st *store.MemoryStore, username string) *domain.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), domain.InsertUser{Username: username, Age: 8})
	require.NoError(t, err)
	return user
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCurrentUserNotFound(t *testing.T) {
	t.Parallel()
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/user", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["message"])
}

func TestGetCurrentUser(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	seedUser(t, st, "little_muslim")

	rec := doJSON(t, router, http.MethodGet, "/api/user", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "little_muslim", user.Username)
}

func TestCreateUser(t *testing.T) {
	t.Parallel()
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", domain.InsertUser{
		Username: "little_muslim",
		Age:      8,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, 0, user.TotalStars)

	// Same username again conflicts
	rec = doJSON(t, router, http.MethodPost, "/api/users", domain.InsertUser{
		Username: "little_muslim",
		Age:      9,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateUserInvalidPayload(t *testing.T) {
	t.Parallel()
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", domain.InsertUser{
		Username: "",
		Age:      8,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUserByID(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	user := seedUser(t, st, "little_muslim")

	rec := doJSON(t, router, http.MethodGet, "/api/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, user.Username, got.Username)

	rec = doJSON(t, router, http.MethodGet, "/api/users/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressRoundTrip(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	seedUser(t, st, "little_muslim")

	// Empty list, not null
	rec := doJSON(t, router, http.MethodGet, "/api/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/progress", domain.InsertGameProgress{
		UserID:          1,
		GameID:          "greetings",
		LevelsCompleted: 6,
		Stars:           3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var record domain.GameProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, domain.DefaultTotalLevels, record.TotalLevels)

	rec = doJSON(t, router, http.MethodGet, "/api/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []domain.GameProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "greetings", records[0].GameID)

	// The credited stars are visible on the user
	rec = doJSON(t, router, http.MethodGet, "/api/user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, 3, user.TotalStars)
}

func TestSubmitProgressInvalid(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	seedUser(t, st, "little_muslim")

	rec := doJSON(t, router, http.MethodPost, "/api/progress", domain.InsertGameProgress{
		UserID:          1,
		GameID:          "greetings",
		LevelsCompleted: 11,
		TotalLevels:     10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAchievementsRoundTrip(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	seedUser(t, st, "little_muslim")

	rec := doJSON(t, router, http.MethodGet, "/api/achievements", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/achievements", domain.InsertAchievement{
		UserID:        1,
		AchievementID: "greeting_master",
		Title:         "Greeting Master",
		Description:   "Completed all greeting lessons",
		Stars:         3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var record domain.Achievement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "greeting_master", record.AchievementID)
	assert.False(t, record.UnlockedAt.IsZero())
}

func TestSubmitScoreReturnsStarsEarned(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	seedUser(t, st, "little_muslim")

	rec := doJSON(t, router, http.MethodPost, "/api/scores", domain.InsertGameScore{
		UserID:    1,
		GameType:  "greetings",
		Score:     9,
		MaxScore:  10,
		TimeSpent: 45,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.SubmittedScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 9, result.Score)
	assert.Equal(t, 3, result.StarsEarned)

	// The raw body carries the starsEarned field by name
	assert.Contains(t, rec.Body.String(), `"starsEarned":3`)
}

func TestSubmitScoreInvalid(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	seedUser(t, st, "little_muslim")

	rec := doJSON(t, router, http.MethodPost, "/api/scores", domain.InsertGameScore{
		UserID:   1,
		GameType: "greetings",
		Score:    11,
		MaxScore: 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/scores", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitScoreUnknownUser(t *testing.T) {
	t.Parallel()
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scores", domain.InsertGameScore{
		UserID:   42,
		GameType: "greetings",
		Score:    9,
		MaxScore: 10,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetScoresFilter(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	seedUser(t, st, "little_muslim")

	for _, sub := range []domain.InsertGameScore{
		{UserID: 1, GameType: "memory-game", Score: 1200, MaxScore: 1800},
		{UserID: 1, GameType: "greetings", Score: 8, MaxScore: 10},
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/scores", sub)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/scores", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []domain.GameScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	rec = doJSON(t, router, http.MethodGet, "/api/scores?gameType=memory-game", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered []domain.GameScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, "memory-game", filtered[0].GameType)
}

func TestGetBestScore(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	seedUser(t, st, "little_muslim")

	// No sessions yet: the body is a JSON null
	rec := doJSON(t, router, http.MethodGet, "/api/scores/best/memory-game", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())

	for _, sub := range []domain.InsertGameScore{
		{UserID: 1, GameType: "memory-game", Score: 1200, MaxScore: 1800},
		{UserID: 1, GameType: "memory-game", Score: 1500, MaxScore: 1800},
	} {
		r := doJSON(t, router, http.MethodPost, "/api/scores", sub)
		require.Equal(t, http.StatusOK, r.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/scores/best/memory-game", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var best domain.GameScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &best))
	assert.Equal(t, 1500, best.Score)
}

func TestGetRankings(t *testing.T) {
	t.Parallel()
	router, st := newTestServer(t)
	seedUser(t, st, "alice")
	seedUser(t, st, "bilal")

	for _, sub := range []domain.InsertGameScore{
		{UserID: 1, GameType: "memory-game", Score: 1200, MaxScore: 1800},
		{UserID: 2, GameType: "memory-game", Score: 1500, MaxScore: 1800},
	} {
		r := doJSON(t, router, http.MethodPost, "/api/scores", sub)
		require.Equal(t, http.StatusOK, r.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/rankings/memory-game", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		Rank   int `json:"rank"`
		UserID int `json:"userId"`
		Score  int `json:"score"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[0].UserID)
	assert.Equal(t, 1500, entries[0].Score)

	rec = doJSON(t, router, http.MethodGet, "/api/rankings/memory-game?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)
}

func TestCORSPreflightAllowed(t *testing.T) {
	t.Parallel()
	router, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/user", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
