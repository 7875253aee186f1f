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

// TapService runs the ticket-to-energy conversion and tap scoring flows.
type TapService struct {
	db        *pgxpool.Pool
	users     *repository.UserRepository
	history   *repository.HistoryRepository
	events    *repository.RewardEventRepository
	catalogs  *catalog.Store
	referrals *ReferralService
}

func NewTapService(
	db *pgxpool.Pool,
	users *repository.UserRepository,
	history *repository.HistoryRepository,
	events *repository.RewardEventRepository,
	catalogs *catalog.Store,
	referrals *ReferralService,
) *TapService {
	return &TapService{db: db, users: users, history: history, events: events, catalogs: catalogs, referrals: referrals}
}

func (s *TapService) tapLevelFor(snap *catalog.Snapshot, u *domain.User) (domain.TapGameLevel, error) {
	level := snap.Levels.LevelFor(u.XP)
	return snap.TapLevels.ForUserLevel(level.Level.Level)
}

// Convert exchanges one ticket for the tap allowance of the user's tap
// level. While taps remain it reports the current state without spending
// a ticket.
func (s *TapService) Convert(ctx context.Context, userID int64) (*progression.ConvertResult, error) {
	snap, err := s.catalogs.Current()
	if err != nil {
		return nil, err
	}

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

	tapLevel, err := s.tapLevelFor(snap, u)
	if err != nil {
		return nil, err
	}

	res, err := progression.ConvertTicket(u.TicketsRemaining, u.CurrentAvailableTaps, tapLevel)
	if err != nil {
		rewardOps.WithLabelValues("ticket_convert", "rejected").Inc()
		return nil, err
	}
	if res.Consumed {
		if err := s.users.SetTapStateWithTx(ctx, tx, userID, u.TicketsRemaining-1, res.AvailableTaps); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	rewardOps.WithLabelValues("ticket_convert", "ok").Inc()
	return &res, nil
}

// Tap scores a tap batch: splits it into XP and Gold units, decrements the
// energy, folds the earnings into the day bucket and credits the balances,
// all under the row lock.
func (s *TapService) Tap(ctx context.Context, userID, count int64) (*progression.TapScore, error) {
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

	tapLevel, err := s.tapLevelFor(snap, u)
	if err != nil {
		return nil, err
	}

	score, err := progression.ScoreTaps(count, u.CurrentAvailableTaps, tapLevel)
	if err != nil {
		rewardOps.WithLabelValues("tap", "rejected").Inc()
		return nil, err
	}

	if err := s.users.SetTapStateWithTx(ctx, tx, userID, u.TicketsRemaining, u.CurrentAvailableTaps-score.Spent); err != nil {
		return nil, err
	}
	day := now.UTC().Truncate(24 * time.Hour)
	if err := s.history.AddTapEarningsWithTx(ctx, tx, userID, day, score.XP, score.Gold); err != nil {
		return nil, err
	}
	if err := s.users.ApplyRewardWithTx(ctx, tx, userID, score.XP, score.Gold); err != nil {
		return nil, err
	}
	if err := s.events.AddWithTx(ctx, tx, &domain.RewardEvent{
		UserID: userID,
		Kind:   domain.RewardTap,
		XP:     score.XP,
		Gold:   score.Gold,
	}); err != nil {
		return nil, err
	}
	bonus, err := grantLevelBonus(ctx, tx, s.users, s.events, snap, u, u.XP+score.XP)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	rewardOps.WithLabelValues("tap", "ok").Inc()

	s.referrals.Cascade(ctx, u, score.Gold+bonus, u.Gold+score.Gold+bonus)
	return &score, nil
}
