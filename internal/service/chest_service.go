package service

import (
	"context"
	"errors"
	"time"

	"catacomb_backend/internal/catalog"
	"catacomb_backend/internal/domain"
	"catacomb_backend/internal/progression"
	"catacomb_backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChestService runs the gated chest opening flow.
type ChestService struct {
	db        *pgxpool.Pool
	users     *repository.UserRepository
	history   *repository.HistoryRepository
	events    *repository.RewardEventRepository
	catalogs  *catalog.Store
	referrals *ReferralService
}

func NewChestService(
	db *pgxpool.Pool,
	users *repository.UserRepository,
	history *repository.HistoryRepository,
	events *repository.RewardEventRepository,
	catalogs *catalog.Store,
	referrals *ReferralService,
) *ChestService {
	return &ChestService{db: db, users: users, history: history, events: events, catalogs: catalogs, referrals: referrals}
}

// ChestOpenResult is the granted reward of a successful open.
type ChestOpenResult struct {
	XP        int64 `json:"xp"`
	Gold      int64 `json:"gold"`
	BonusGold int64 `json:"bonus_gold,omitempty"`
}

// Open runs the chest gates under the user's row lock and, when granted,
// appends the history entry and credits the reward atomically. The attempt
// that exceeds the daily limit persists the 24h block anchor before
// returning the error.
func (s *ChestService) Open(ctx context.Context, userID int64) (*ChestOpenResult, error) {
	snap, err := s.catalogs.Current()
	if err != nil {
		return nil, err
	}
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u, err := s.users.GetForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.Blocked {
		return nil, ErrUserBlocked
	}

	level := snap.Levels.LevelFor(u.XP)
	history, err := s.history.ChestGateHistory(ctx, tx, userID, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	gate := progression.ChestGate{Settings: snap.Settings}
	decision, err := gate.Evaluate(history, u.LimitedTime, level.Level.SecondsForNextChestOpening, now)
	if err != nil {
		var limit *progression.DailyLimitError
		if errors.As(err, &limit) && limit.JustStarted {
			if err := s.users.SetLimitedTimeWithTx(ctx, tx, userID, now); err != nil {
				return nil, err
			}
			if err := tx.Commit(ctx); err != nil {
				return nil, err
			}
			rewardOps.WithLabelValues("chest_open", "limited").Inc()
			return nil, limit
		}
		rewardOps.WithLabelValues("chest_open", "rejected").Inc()
		return nil, err
	}

	entry := domain.ChestOpen{TimeOpened: decision.OpenedAt, XP: decision.XP, Gold: decision.Gold}
	if err := s.history.AddChestOpenWithTx(ctx, tx, userID, entry); err != nil {
		return nil, err
	}
	if err := s.users.ApplyRewardWithTx(ctx, tx, userID, decision.XP, decision.Gold); err != nil {
		return nil, err
	}
	if err := s.events.AddWithTx(ctx, tx, &domain.RewardEvent{
		UserID: userID,
		Kind:   domain.RewardChestOpen,
		XP:     decision.XP,
		Gold:   decision.Gold,
	}); err != nil {
		return nil, err
	}
	bonus, err := grantLevelBonus(ctx, tx, s.users, s.events, snap, u, u.XP+decision.XP)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	rewardOps.WithLabelValues("chest_open", "ok").Inc()

	s.referrals.Cascade(ctx, u, decision.Gold+bonus, u.Gold+decision.Gold+bonus)

	return &ChestOpenResult{XP: decision.XP, Gold: decision.Gold, BonusGold: bonus}, nil
}

// ChestTimer reports when the next open becomes available.
type ChestTimer struct {
	NextOpeningIn int64 `json:"next_opening_in_seconds"`
	DailyBlockIn  int64 `json:"daily_block_remaining_seconds,omitempty"`
}

// Timer computes the remaining waits without consuming anything. A fresh
// user's cooldown is anchored at account creation.
func (s *ChestService) Timer(ctx context.Context, userID int64) (*ChestTimer, error) {
	snap, err := s.catalogs.Current()
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var history []domain.ChestOpen
	last, err := s.history.LastChestOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		history = append(history, *last)
	}

	now := time.Now()
	level := snap.Levels.LevelFor(u.XP)
	wait := progression.NextOpeningIn(history, u.CreatedAt, level.Level.SecondsForNextChestOpening, now)

	timer := &ChestTimer{NextOpeningIn: int64(wait.Seconds())}
	if u.LimitedTime != nil {
		if blockLeft := 24*time.Hour - now.Sub(*u.LimitedTime); blockLeft > 0 {
			timer.DailyBlockIn = int64(blockLeft.Seconds())
			if blockLeft > wait {
				timer.NextOpeningIn = int64(blockLeft.Seconds())
			}
		}
	}
	return timer, nil
}

// History returns the user's chest opening history, oldest first.
func (s *ChestService) History(ctx context.Context, userID int64) ([]domain.ChestOpen, error) {
	return s.history.ChestOpens(ctx, userID)
}
