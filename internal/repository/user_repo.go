package repository

import (
	"context"
	"errors"
	"time"

	"catacomb_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so reads can run
// inside or outside a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const userColumns = `id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''),
	xp, gold, tickets_remaining, current_available_taps,
	referred_by, COALESCE(referral_code, ''), limited_time,
	current_season_xp, current_season_gold, bonus_level_claimed, blocked, created_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.TgID,
		&u.Username,
		&u.FirstName,
		&u.XP,
		&u.Gold,
		&u.TicketsRemaining,
		&u.CurrentAvailableTaps,
		&u.ReferredBy,
		&u.ReferralCode,
		&u.LimitedTime,
		&u.CurrentSeasonXP,
		&u.CurrentSeasonGold,
		&u.BonusLevelClaimed,
		&u.Blocked,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tg_id = $1`, tgID))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO users (tg_id, username, first_name, referral_code)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.TgID, u.Username, u.FirstName, u.ReferralCode,
	).Scan(&u.ID, &u.CreatedAt)
}

// GetForUpdate loads and row-locks the user inside tx. All reward writes
// go through this lock, so concurrent requests for the same user serialize.
func (r *UserRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.User, error) {
	return scanUser(tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// ApplyRewardWithTx credits xp/gold and mirrors them into the cached
// season totals.
func (r *UserRepository) ApplyRewardWithTx(ctx context.Context, tx pgx.Tx, userID, xp, gold int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE users
		 SET xp = xp + $1, gold = gold + $2,
		     current_season_xp = current_season_xp + $1,
		     current_season_gold = current_season_gold + $2
		 WHERE id = $3`,
		xp, gold, userID,
	)
	return err
}

// AddTicketsWithTx adds tickets to the user's balance.
func (r *UserRepository) AddTicketsWithTx(ctx context.Context, tx pgx.Tx, userID, tickets int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET tickets_remaining = tickets_remaining + $1 WHERE id = $2`,
		tickets, userID,
	)
	return err
}

// SetTapStateWithTx stores the ticket balance and tap energy after a
// conversion or a scored tap batch.
func (r *UserRepository) SetTapStateWithTx(ctx context.Context, tx pgx.Tx, userID, tickets, taps int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET tickets_remaining = $1, current_available_taps = $2 WHERE id = $3`,
		tickets, taps, userID,
	)
	return err
}

// SetLimitedTimeWithTx anchors the 24h chest hard block at t.
func (r *UserRepository) SetLimitedTimeWithTx(ctx context.Context, tx pgx.Tx, userID int64, t time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET limited_time = $1 WHERE id = $2`,
		t, userID,
	)
	return err
}

// MarkBonusLevelClaimedWithTx records that the one-time bonus for reaching
// level was paid. Returns false when a same-or-higher bonus was already
// claimed, so the bonus is paid at most once per level.
func (r *UserRepository) MarkBonusLevelClaimedWithTx(ctx context.Context, tx pgx.Tx, userID int64, level int) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET bonus_level_claimed = $1 WHERE id = $2 AND bonus_level_claimed < $1`,
		level, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetSeasonTotals overwrites the cached season totals after a recompute.
func (r *UserRepository) SetSeasonTotals(ctx context.Context, userID, xp, gold int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET current_season_xp = $1, current_season_gold = $2 WHERE id = $3`,
		xp, gold, userID,
	)
	return err
}

// ResetSeasonTotals zeroes the cached totals for all users at rollover.
func (r *UserRepository) ResetSeasonTotals(ctx context.Context) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET current_season_xp = 0, current_season_gold = 0`)
	return err
}

func (r *UserRepository) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET blocked = $1 WHERE id = $2`, blocked, userID)
	return err
}

// SeasonRow is a user's cached season totals, the input to ranking.
type SeasonRow struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	SeasonXP   int64  `json:"season_xp"`
	SeasonGold int64  `json:"season_gold"`
}

// ListSeasonRows returns all non-blocked users' cached season totals.
func (r *UserRepository) ListSeasonRows(ctx context.Context) ([]SeasonRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, COALESCE(username, ''), current_season_xp, current_season_gold
		FROM users
		WHERE NOT blocked`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []SeasonRow
	for rows.Next() {
		var row SeasonRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.SeasonXP, &row.SeasonGold); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// ListUserIDs returns all user ids, for season-wide recomputes.
func (r *UserRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
