package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/config"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/redis"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/store"
)

// RebuildWorker periodically rebuilds the Redis rankings from stored scores
type RebuildWorker struct {
	rankings *redis.Rankings
	store    store.Store
	config   *config.SyncConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewRebuildWorker creates a new rankings rebuild worker
func NewRebuildWorker(
	rankings *redis.Rankings,
	st store.Store,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *RebuildWorker {
	return &RebuildWorker{
		rankings: rankings,
		store:    st,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background rebuild process
func (w *RebuildWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("rebuild worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background rebuild process
func (w *RebuildWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("rebuild worker stopped")
	return nil
}

// run is the main worker loop
func (w *RebuildWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.rebuildAll(ctx)
		}
	}
}

// rebuildAll rebuilds the rankings for every known game type
func (w *RebuildWorker) rebuildAll(ctx context.Context) {
	w.logger.Info("starting rebuild cycle")
	startTime := time.Now()

	gameTypes, err := w.store.ListGameTypes(ctx)
	if err != nil {
		w.logger.Error("failed to list game types for rebuild", "error", err)
		return
	}

	rebuiltCount := 0
	errorCount := 0

	for _, gameType := range gameTypes {
		if err := w.Rebuild(ctx, gameType); err != nil {
			w.logger.Error("failed to rebuild rankings",
				"game_type", gameType,
				"error", err,
			)
			errorCount++
		} else {
			rebuiltCount++
		}
	}

	duration := time.Since(startTime)
	w.logger.Info("rebuild cycle completed",
		"duration", duration,
		"rebuilt", rebuiltCount,
		"errors", errorCount,
	)
}

// Rebuild replaces the rankings for one game type with the stored best scores
func (w *RebuildWorker) Rebuild(ctx context.Context, gameType string) error {
	w.logger.Debug("rebuilding rankings", "game_type", gameType)

	best, err := w.store.BestScoresByGame(ctx, gameType)
	if err != nil {
		return err
	}

	if len(best) == 0 {
		w.logger.Debug("no scores to rank", "game_type", gameType)
		return nil
	}

	if err := w.rankings.ReplaceAll(ctx, gameType, best); err != nil {
		return err
	}

	w.logger.Debug("rebuilt rankings",
		"game_type", gameType,
		"user_count", len(best),
	)

	return nil
}

// IsRunning returns whether the worker is currently running
func (w *RebuildWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single rebuild cycle (useful at startup)
func (w *RebuildWorker) RunOnce(ctx context.Context) {
	w.rebuildAll(ctx)
}
