package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"catacomb_backend/internal/domain"
	"catacomb_backend/internal/logger"
	"catacomb_backend/internal/progression"
)

var ErrNotLoaded = errors.New("catalog not loaded")

// Loader fetches the reward tables from storage.
type Loader interface {
	LoadLevels(ctx context.Context) ([]domain.Level, error)
	LoadTapLevels(ctx context.Context) ([]domain.TapGameLevel, error)
	LoadSettings(ctx context.Context) (domain.Settings, error)
}

// Snapshot is an immutable view of the reward tables. All reads during a
// single operation go through one snapshot, so a concurrent refresh never
// mixes old and new rows.
type Snapshot struct {
	Levels    *progression.LevelCatalog
	TapLevels *progression.TapLevelCatalog
	Settings  domain.Settings
	LoadedAt  time.Time
}

// Store keeps the current snapshot and swaps it atomically on refresh.
type Store struct {
	loader Loader
	cur    atomic.Pointer[Snapshot]
}

func NewStore(loader Loader) *Store {
	return &Store{loader: loader}
}

// Current returns the active snapshot. ErrNotLoaded before the first
// successful Refresh.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.cur.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Refresh reloads all tables and swaps the snapshot in. On error the
// previous snapshot stays active.
func (s *Store) Refresh(ctx context.Context) error {
	levels, err := s.loader.LoadLevels(ctx)
	if err != nil {
		return err
	}
	tapLevels, err := s.loader.LoadTapLevels(ctx)
	if err != nil {
		return err
	}
	settings, err := s.loader.LoadSettings(ctx)
	if err != nil {
		return err
	}

	levelCatalog, err := progression.NewLevelCatalog(levels)
	if err != nil {
		return err
	}

	s.cur.Store(&Snapshot{
		Levels:    levelCatalog,
		TapLevels: progression.NewTapLevelCatalog(tapLevels),
		Settings:  settings,
		LoadedAt:  time.Now(),
	})
	return nil
}

// RunRefresher refreshes the snapshot on a fixed interval until the
// context is cancelled. Load failures are logged and retried on the
// next tick.
func (s *Store) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				logger.Error("catalog refresh failed", "error", err)
			}
		}
	}
}
