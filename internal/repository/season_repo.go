package repository

import (
	"context"
	"errors"
	"time"

	"catacomb_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoActiveSeason = errors.New("no active season")

// SeasonRepository reads the precomputed season calendar.
type SeasonRepository struct {
	db *pgxpool.Pool
}

func NewSeasonRepository(db *pgxpool.Pool) *SeasonRepository {
	return &SeasonRepository{db: db}
}

// Current returns the season whose [starts_at, ends_at) window contains now.
func (r *SeasonRepository) Current(ctx context.Context, now time.Time) (*domain.Season, error) {
	var s domain.Season
	err := r.db.QueryRow(ctx,
		`SELECT number, starts_at, ends_at FROM seasons
		 WHERE starts_at <= $1 AND ends_at > $1`,
		now,
	).Scan(&s.Number, &s.Start, &s.End)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSeason
		}
		return nil, err
	}
	return &s, nil
}

func (r *SeasonRepository) ByNumber(ctx context.Context, number int) (*domain.Season, error) {
	var s domain.Season
	err := r.db.QueryRow(ctx,
		`SELECT number, starts_at, ends_at FROM seasons WHERE number = $1`,
		number,
	).Scan(&s.Number, &s.Start, &s.End)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSeason
		}
		return nil, err
	}
	return &s, nil
}
