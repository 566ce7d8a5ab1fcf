package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/config"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/domain"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/service"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/websocket"
)

// Handler provides HTTP handlers for the ledger API
type Handler struct {
	service *service.LedgerService
	hub     *websocket.Hub
	cfg     *config.LedgerConfig
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler. The hub may be nil when the
// websocket push is disabled.
func NewHandler(svc *service.LedgerService, hub *websocket.Hub, cfg *config.LedgerConfig, logger *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		hub:     hub,
		cfg:     cfg,
		logger:  logger,
	}
}

// errorResponse is the failure body shape the client expects
type errorResponse struct {
	Message string `json:"message"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	if h.hub != nil {
		r.Get("/ws", h.HandleWebSocket)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/user", h.GetCurrentUser)
		r.Post("/users", h.CreateUser)
		r.Get("/users/{userID}", h.GetUser)

		r.Get("/progress", h.GetProgress)
		r.Post("/progress", h.SubmitProgress)

		r.Get("/achievements", h.GetAchievements)
		r.Post("/achievements", h.SubmitAchievement)

		r.Get("/scores", h.GetScores)
		r.Post("/scores", h.SubmitScore)
		r.Get("/scores/best/{gameType}", h.GetBestScore)

		r.Get("/rankings/{gameType}", h.GetRankings)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Message: message})
}

// respondError maps a service error onto the failure taxonomy: 400 for
// rejected payloads, 404 for missing records, 409 for duplicate
// usernames, 500 otherwise.
func (h *Handler) respondError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUsernameTaken):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError.Error())
	}
}

// defaultUserID resolves the learner targeted by the session-less routes
func (h *Handler) defaultUserID() int {
	return h.cfg.DefaultUserID
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetCurrentUser returns the default learner
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), h.defaultUserID())
	if err != nil {
		h.respondError(w, err, "failed to get user")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// GetUser returns a learner by id
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "failed to get user")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// CreateUser registers a new learner
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var insert domain.InsertUser
	if err := json.NewDecoder(r.Body).Decode(&insert); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid user data")
		return
	}

	user, err := h.service.RegisterUser(r.Context(), insert)
	if err != nil {
		h.respondError(w, err, "failed to create user")
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// GetProgress returns the default learner's progress records
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.Progress(r.Context(), h.defaultUserID())
	if err != nil {
		h.respondError(w, err, "failed to get progress")
		return
	}
	if progress == nil {
		progress = []domain.GameProgress{}
	}
	h.writeJSON(w, http.StatusOK, progress)
}

// SubmitProgress records a progress update
func (h *Handler) SubmitProgress(w http.ResponseWriter, r *http.Request) {
	var insert domain.InsertGameProgress
	if err := json.NewDecoder(r.Body).Decode(&insert); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid progress data")
		return
	}

	record, err := h.service.SubmitProgress(r.Context(), insert)
	if err != nil {
		h.respondError(w, err, "failed to submit progress")
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// GetAchievements returns the default learner's unlocks
func (h *Handler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.service.Achievements(r.Context(), h.defaultUserID())
	if err != nil {
		h.respondError(w, err, "failed to get achievements")
		return
	}
	if achievements == nil {
		achievements = []domain.Achievement{}
	}
	h.writeJSON(w, http.StatusOK, achievements)
}

// SubmitAchievement records an achievement unlock
func (h *Handler) SubmitAchievement(w http.ResponseWriter, r *http.Request) {
	var insert domain.InsertAchievement
	if err := json.NewDecoder(r.Body).Decode(&insert); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid achievement data")
		return
	}

	record, err := h.service.UnlockAchievement(r.Context(), insert)
	if err != nil {
		h.respondError(w, err, "failed to submit achievement")
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// GetScores returns the default learner's play sessions, optionally
// filtered by the gameType query parameter
func (h *Handler) GetScores(w http.ResponseWriter, r *http.Request) {
	gameType := r.URL.Query().Get("gameType")

	scores, err := h.service.Scores(r.Context(), h.defaultUserID(), gameType)
	if err != nil {
		h.respondError(w, err, "failed to get scores")
		return
	}
	if scores == nil {
		scores = []domain.GameScore{}
	}
	h.writeJSON(w, http.StatusOK, scores)
}

// SubmitScore records a play session and returns the stored record plus
// the derived star count
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var insert domain.InsertGameScore
	if err := json.NewDecoder(r.Body).Decode(&insert); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid score data")
		return
	}

	result, err := h.service.SubmitScore(r.Context(), insert)
	if err != nil {
		h.respondError(w, err, "failed to submit score")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// GetBestScore returns the default learner's best session for a game
// type, or null when none exists yet
func (h *Handler) GetBestScore(w http.ResponseWriter, r *http.Request) {
	gameType := chi.URLParam(r, "gameType")
	if gameType == "" {
		h.writeError(w, http.StatusBadRequest, "game type is required")
		return
	}

	best, err := h.service.BestScore(r.Context(), h.defaultUserID(), gameType)
	if err != nil {
		h.respondError(w, err, "failed to get best score")
		return
	}
	h.writeJSON(w, http.StatusOK, best)
}

// GetRankings returns the cross-learner best-score ranking for a game type
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	gameType := chi.URLParam(r, "gameType")
	if gameType == "" {
		h.writeError(w, http.StatusBadRequest, "game type is required")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.service.TopScores(r.Context(), gameType, limit)
	if err != nil {
		h.respondError(w, err, "failed to get rankings")
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}
