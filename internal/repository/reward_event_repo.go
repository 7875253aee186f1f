package repository

import (
	"context"

	"catacomb_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RewardEventRepository is the append-only audit trail of granted rewards.
type RewardEventRepository struct {
	db *pgxpool.Pool
}

func NewRewardEventRepository(db *pgxpool.Pool) *RewardEventRepository {
	return &RewardEventRepository{db: db}
}

// AddWithTx writes the event inside the reward transaction, assigning its
// id when unset.
func (r *RewardEventRepository) AddWithTx(ctx context.Context, tx pgx.Tx, e *domain.RewardEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return tx.QueryRow(ctx,
		`INSERT INTO reward_events (id, user_id, kind, xp, gold)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		e.ID, e.UserID, e.Kind, e.XP, e.Gold,
	).Scan(&e.CreatedAt)
}

// Add writes the event outside a transaction (referral cascades run after
// the triggering reward committed).
func (r *RewardEventRepository) Add(ctx context.Context, e *domain.RewardEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO reward_events (id, user_id, kind, xp, gold)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		e.ID, e.UserID, e.Kind, e.XP, e.Gold,
	).Scan(&e.CreatedAt)
}

// RecentByUser returns the user's latest reward events, newest first.
func (r *RewardEventRepository) RecentByUser(ctx context.Context, userID int64, limit int) ([]domain.RewardEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, kind, xp, gold, created_at
		 FROM reward_events
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.RewardEvent
	for rows.Next() {
		var e domain.RewardEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.XP, &e.Gold, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
