package service

import (
	"context"
	"errors"

	"catacomb_backend/internal/catalog"
	"catacomb_backend/internal/domain"
	"catacomb_backend/internal/repository"

	"github.com/jackc/pgx/v5"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserBlocked  = errors.New("user is blocked")
)

// grantLevelBonus pays the one-time gold bonus for every level crossed by an
// XP change inside the same locked transaction. bonus_level_claimed is the
// highest level already paid, so a retried request never pays twice.
func grantLevelBonus(
	ctx context.Context,
	tx pgx.Tx,
	users *repository.UserRepository,
	events *repository.RewardEventRepository,
	snap *catalog.Snapshot,
	u *domain.User,
	afterXP int64,
) (int64, error) {
	after := snap.Levels.LevelFor(afterXP).Level.Level
	if after <= u.BonusLevelClaimed {
		return 0, nil
	}

	var bonus int64
	for _, lvl := range snap.Levels.Levels() {
		if lvl.Level > u.BonusLevelClaimed && lvl.Level <= after {
			bonus += lvl.OneTimeBonusRewards
		}
	}

	ok, err := users.MarkBonusLevelClaimedWithTx(ctx, tx, u.ID, after)
	if err != nil || !ok {
		return 0, err
	}
	if bonus == 0 {
		return 0, nil
	}

	if err := users.ApplyRewardWithTx(ctx, tx, u.ID, 0, bonus); err != nil {
		return 0, err
	}
	err = events.AddWithTx(ctx, tx, &domain.RewardEvent{
		UserID: u.ID,
		Kind:   domain.RewardLevelBonus,
		Gold:   bonus,
	})
	return bonus, err
}
