package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"catacomb_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GenerateReferralCode generates a unique referral code
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetOrCreateReferralCode gets existing or creates new referral code for user
func (r *ReferralRepository) GetOrCreateReferralCode(ctx context.Context, userID int64) (string, error) {
	var code string
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(referral_code, '') FROM users WHERE id = $1`,
		userID,
	).Scan(&code)
	if err != nil {
		return "", err
	}
	if code != "" {
		return code, nil
	}

	// retry on the unique index in case of collision
	for i := 0; i < 5; i++ {
		code = GenerateReferralCode()
		_, err = r.db.Exec(ctx,
			`UPDATE users SET referral_code = $1 WHERE id = $2`,
			code, userID,
		)
		if err == nil {
			return code, nil
		}
	}
	return "", err
}

// GetUserIDByCode finds the owner of a referral code.
func (r *ReferralRepository) GetUserIDByCode(ctx context.Context, code string) (int64, error) {
	var userID int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM users WHERE referral_code = $1`,
		code,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return userID, nil
}

// Bind attaches the referred user to their referrer. The link is written
// once and never rebound.
func (r *ReferralRepository) Bind(ctx context.Context, referrerID, referredID int64) error {
	if referrerID == referredID {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`UPDATE users SET referred_by = $1 WHERE id = $2 AND referred_by IS NULL`,
		referrerID, referredID,
	)
	return err
}

// ValidReferrals returns the referrer's valid referral list, oldest first.
func (r *ReferralRepository) ValidReferrals(ctx context.Context, referrerID int64) ([]domain.ValidReferral, error) {
	rows, err := r.db.Query(ctx,
		`SELECT referred_id, time_added FROM valid_referrals
		 WHERE referrer_id = $1 ORDER BY time_added ASC`,
		referrerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ValidReferral
	for rows.Next() {
		var v domain.ValidReferral
		if err := rows.Scan(&v.ReferredID, &v.TimeAdded); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// AddValidReferral inserts the referred user into the referrer's valid
// list. The unique constraint makes repeated inserts a no-op, reports
// whether a row was actually added.
func (r *ReferralRepository) AddValidReferral(ctx context.Context, referrerID, referredID int64, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO valid_referrals (referrer_id, referred_id, time_added)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (referrer_id, referred_id) DO NOTHING`,
		referrerID, referredID, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountReferrals returns how many users the referrer has invited and how
// many of them qualified.
func (r *ReferralRepository) CountReferrals(ctx context.Context, referrerID int64) (invited, valid int, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM users WHERE referred_by = $1),
		   (SELECT COUNT(*) FROM valid_referrals WHERE referrer_id = $1)`,
		referrerID,
	).Scan(&invited, &valid)
	return invited, valid, err
}
