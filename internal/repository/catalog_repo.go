package repository

import (
	"context"

	"catacomb_backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository loads the externally managed reward tables. It backs
// the in-process catalog snapshot.
type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) LoadLevels(ctx context.Context) ([]domain.Level, error) {
	rows, err := r.db.Query(ctx,
		`SELECT level, xp_required, seconds_for_next_chest_opening, one_time_bonus_rewards
		 FROM levels ORDER BY xp_required ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []domain.Level
	for rows.Next() {
		var l domain.Level
		if err := rows.Scan(&l.Level, &l.XPRequired, &l.SecondsForNextChestOpening, &l.OneTimeBonusRewards); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (r *CatalogRepository) LoadTapLevels(ctx context.Context) ([]domain.TapGameLevel, error) {
	rows, err := r.db.Query(ctx,
		`SELECT tap_level, required_user_levels, xp_earning_per_tap, gold_earning_per_tap, tap_limit_per_ticket
		 FROM tap_levels ORDER BY tap_level ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []domain.TapGameLevel
	for rows.Next() {
		var l domain.TapGameLevel
		if err := rows.Scan(&l.TapLevel, &l.RequiredUserLevels, &l.XPEarningPerTap, &l.GoldEarningPerTap, &l.TapLimitPerTicket); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (r *CatalogRepository) LoadSettings(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	err := r.db.QueryRow(ctx,
		`SELECT opening_chest_golds, opening_chest_xp, referral_gold_percentage,
		        referral_xp, daily_opening_chests_limit, construction_bonus_xp
		 FROM settings WHERE id = 1`,
	).Scan(
		&s.OpeningChestGolds,
		&s.OpeningChestXP,
		&s.ReferralGoldPercentage,
		&s.ReferralXP,
		&s.DailyOpeningChestsLimit,
		&s.ConstructionBonusXP,
	)
	return s, err
}
