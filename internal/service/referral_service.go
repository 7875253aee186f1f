package service

import (
	"context"
	"time"

	"catacomb_backend/internal/catalog"
	"catacomb_backend/internal/domain"
	"catacomb_backend/internal/logger"
	"catacomb_backend/internal/progression"
	"catacomb_backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralService pays referrers their cut of gold rewards and serves
// referral stats.
type ReferralService struct {
	db        *pgxpool.Pool
	users     *repository.UserRepository
	referrals *repository.ReferralRepository
	events    *repository.RewardEventRepository
	catalogs  *catalog.Store
}

func NewReferralService(
	db *pgxpool.Pool,
	users *repository.UserRepository,
	referrals *repository.ReferralRepository,
	events *repository.RewardEventRepository,
	catalogs *catalog.Store,
) *ReferralService {
	return &ReferralService{db: db, users: users, referrals: referrals, events: events, catalogs: catalogs}
}

// Cascade rewards the referrer after the referred user earned a reward. It
// runs after the triggering reward committed; failures are logged and
// counted, never surfaced to the player. The gold share scales with the
// reward's gold, the XP bonus is fixed, so an XP-only reward still pays
// the referrer their XP. The referrer's own cut does not cascade further.
func (s *ReferralService) Cascade(ctx context.Context, referred *domain.User, rewardGold, goldAfter int64) {
	if referred.ReferredBy == nil {
		return
	}
	if rewardGold < 0 {
		rewardGold = 0
	}
	referrerID := *referred.ReferredBy

	snap, err := s.catalogs.Current()
	if err != nil {
		s.fail(referrerID, referred.ID, err)
		return
	}

	valid, err := s.referrals.ValidReferrals(ctx, referrerID)
	if err != nil {
		s.fail(referrerID, referred.ID, err)
		return
	}
	if progression.ShouldRecordValidReferral(valid, referred.ID, goldAfter) {
		if _, err := s.referrals.AddValidReferral(ctx, referrerID, referred.ID, time.Now()); err != nil {
			s.fail(referrerID, referred.ID, err)
			return
		}
	}

	gold, xp := progression.ReferralReward(snap.Settings, rewardGold)
	if gold == 0 && xp == 0 {
		referralCascades.WithLabelValues("ok").Inc()
		return
	}

	if err := s.creditReferrer(ctx, snap, referrerID, xp, gold); err != nil {
		s.fail(referrerID, referred.ID, err)
		return
	}
	referralCascades.WithLabelValues("ok").Inc()
}

func (s *ReferralService) creditReferrer(ctx context.Context, snap *catalog.Snapshot, referrerID, xp, gold int64) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	referrer, err := s.users.GetForUpdate(ctx, tx, referrerID)
	if err != nil {
		return err
	}
	if referrer.Blocked {
		return nil
	}

	if err := s.users.ApplyRewardWithTx(ctx, tx, referrerID, xp, gold); err != nil {
		return err
	}
	if err := s.events.AddWithTx(ctx, tx, &domain.RewardEvent{
		UserID: referrerID,
		Kind:   domain.RewardReferral,
		XP:     xp,
		Gold:   gold,
	}); err != nil {
		return err
	}
	if _, err := grantLevelBonus(ctx, tx, s.users, s.events, snap, referrer, referrer.XP+xp); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *ReferralService) fail(referrerID, referredID int64, err error) {
	referralCascades.WithLabelValues("error").Inc()
	logger.Error("referral cascade failed",
		"referrer_id", referrerID, "referred_id", referredID, "error", err)
}

// ReferralStats is the referrer-facing view of their invites.
type ReferralStats struct {
	Code           string `json:"referral_code"`
	InvitedCount   int    `json:"invited_count"`
	ValidCount     int    `json:"valid_count"`
	GoldPercentage int64  `json:"gold_percentage"`
}

// Stats returns the user's referral code (creating it if missing) and
// invite counts.
func (s *ReferralService) Stats(ctx context.Context, userID int64) (*ReferralStats, error) {
	code, err := s.referrals.GetOrCreateReferralCode(ctx, userID)
	if err != nil {
		return nil, err
	}
	invited, valid, err := s.referrals.CountReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}

	var pct int64
	if snap, err := s.catalogs.Current(); err == nil {
		pct = snap.Settings.ReferralGoldPercentage
	}
	return &ReferralStats{
		Code:           code,
		InvitedCount:   invited,
		ValidCount:     valid,
		GoldPercentage: pct,
	}, nil
}
