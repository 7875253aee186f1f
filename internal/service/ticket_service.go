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

// TicketService runs the daily and ad ticket claim flows.
type TicketService struct {
	db       *pgxpool.Pool
	users    *repository.UserRepository
	history  *repository.HistoryRepository
	events   *repository.RewardEventRepository
	catalogs *catalog.Store
}

func NewTicketService(
	db *pgxpool.Pool,
	users *repository.UserRepository,
	history *repository.HistoryRepository,
	events *repository.RewardEventRepository,
	catalogs *catalog.Store,
) *TicketService {
	return &TicketService{db: db, users: users, history: history, events: events, catalogs: catalogs}
}

// DailyClaimResult is a granted daily claim.
type DailyClaimResult struct {
	Tickets          int64 `json:"tickets"`
	ConstructionDays int   `json:"construction_days"`
	Resetted         bool  `json:"resetted"`
	BonusXP          int64 `json:"bonus_xp,omitempty"`
}

// ClaimDaily advances the construction-days state machine under the row
// lock. Nothing is written when the claim window has not reopened, so the
// streak state stays derivable from the last history entry alone.
func (s *TicketService) ClaimDaily(ctx context.Context, userID int64) (*DailyClaimResult, error) {
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

	last, err := s.history.LastTicketClaimWithTx(ctx, tx, userID, domain.TicketSourceDaily)
	if err != nil {
		return nil, err
	}

	state := progression.NextDailyClaim(last, now)
	if state.Claimable == 0 {
		rewardOps.WithLabelValues("daily_tickets", "rejected").Inc()
		return nil, progression.ErrAlreadyClaimed
	}

	claim := domain.TicketClaim{
		ClaimedAt:        now,
		NumberOfTickets:  state.Tickets(),
		DueTo:            domain.TicketSourceDaily,
		Resetted:         state.Resetted,
		ConstructionDays: state.ConstructionDays,
	}
	if err := s.history.AddTicketClaimWithTx(ctx, tx, userID, claim); err != nil {
		return nil, err
	}
	if err := s.users.AddTicketsWithTx(ctx, tx, userID, state.Tickets()); err != nil {
		return nil, err
	}

	var bonusXP int64
	if state.BonusEligible() {
		bonusXP = snap.Settings.ConstructionBonusXP
	}
	if bonusXP > 0 {
		if err := s.users.ApplyRewardWithTx(ctx, tx, userID, bonusXP, 0); err != nil {
			return nil, err
		}
		if _, err := grantLevelBonus(ctx, tx, s.users, s.events, snap, u, u.XP+bonusXP); err != nil {
			return nil, err
		}
	}
	if err := s.events.AddWithTx(ctx, tx, &domain.RewardEvent{
		UserID: userID,
		Kind:   domain.RewardDailyTickets,
		XP:     bonusXP,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	rewardOps.WithLabelValues("daily_tickets", "ok").Inc()

	return &DailyClaimResult{
		Tickets:          state.Tickets(),
		ConstructionDays: state.ConstructionDays,
		Resetted:         state.Resetted,
		BonusXP:          bonusXP,
	}, nil
}

// ClaimAd grants the fixed ad reward, at most once per 12h window.
func (s *TicketService) ClaimAd(ctx context.Context, userID int64) (int64, error) {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u, err := s.users.GetForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	if u.Blocked {
		return 0, ErrUserBlocked
	}

	last, err := s.history.LastTicketClaimWithTx(ctx, tx, userID, domain.TicketSourceAd)
	if err != nil {
		return 0, err
	}
	ok, remaining := progression.CanClaimAdTicket(last, now)
	if !ok {
		rewardOps.WithLabelValues("ad_tickets", "rejected").Inc()
		return 0, &progression.AlreadyClaimedError{Remaining: remaining}
	}

	claim := domain.TicketClaim{
		ClaimedAt:       now,
		NumberOfTickets: progression.AdTickets,
		DueTo:           domain.TicketSourceAd,
	}
	if err := s.history.AddTicketClaimWithTx(ctx, tx, userID, claim); err != nil {
		return 0, err
	}
	if err := s.users.AddTicketsWithTx(ctx, tx, userID, progression.AdTickets); err != nil {
		return 0, err
	}
	if err := s.events.AddWithTx(ctx, tx, &domain.RewardEvent{
		UserID: userID,
		Kind:   domain.RewardAdTickets,
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	rewardOps.WithLabelValues("ad_tickets", "ok").Inc()
	return progression.AdTickets, nil
}

// TicketInfo is the read model of both claim paths.
type TicketInfo struct {
	TicketsRemaining int64 `json:"tickets_remaining"`
	DailyClaimable   int64 `json:"daily_claimable_tickets"`
	ConstructionDays int   `json:"construction_days"`
	NextDailySeconds int64 `json:"next_daily_in_seconds"`
	AdAvailable      bool  `json:"ad_available"`
	NextAdSeconds    int64 `json:"next_ad_in_seconds"`
}

// Info reports what both claim paths would grant right now, without
// claiming anything.
func (s *TicketService) Info(ctx context.Context, userID int64) (*TicketInfo, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	lastDaily, err := s.history.LastTicketClaim(ctx, userID, domain.TicketSourceDaily)
	if err != nil {
		return nil, err
	}
	lastAd, err := s.history.LastTicketClaim(ctx, userID, domain.TicketSourceAd)
	if err != nil {
		return nil, err
	}

	state := progression.NextDailyClaim(lastDaily, now)
	info := &TicketInfo{
		TicketsRemaining: u.TicketsRemaining,
		DailyClaimable:   state.Tickets(),
		ConstructionDays: state.ConstructionDays,
	}
	if state.Claimable == 0 && lastDaily != nil {
		if wait := lastDaily.ClaimedAt.Add(24 * time.Hour).Sub(now); wait > 0 {
			info.NextDailySeconds = int64(wait.Seconds())
		}
	}

	adOK, adWait := progression.CanClaimAdTicket(lastAd, now)
	info.AdAvailable = adOK
	info.NextAdSeconds = int64(adWait.Seconds())
	return info, nil
}
