package repository

import (
	"context"
	"errors"
	"time"

	"catacomb_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepository stores the append-only reward histories: chest opens,
// ticket claims, per-day tap earnings and task completions.
type HistoryRepository struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) AddChestOpenWithTx(ctx context.Context, tx pgx.Tx, userID int64, e domain.ChestOpen) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO chest_opens (user_id, time_opened, xp, gold) VALUES ($1, $2, $3, $4)`,
		userID, e.TimeOpened, e.XP, e.Gold,
	)
	return err
}

func (r *HistoryRepository) chestOpens(ctx context.Context, q querier, sql string, args ...any) ([]domain.ChestOpen, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ChestOpen
	for rows.Next() {
		var e domain.ChestOpen
		if err := rows.Scan(&e.TimeOpened, &e.XP, &e.Gold, &e.Summary); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ChestOpens returns the user's full chest history, oldest first.
func (r *HistoryRepository) ChestOpens(ctx context.Context, userID int64) ([]domain.ChestOpen, error) {
	return r.chestOpens(ctx, r.db,
		`SELECT time_opened, xp, gold, summary FROM chest_opens
		 WHERE user_id = $1 ORDER BY time_opened ASC`, userID)
}

// ChestGateHistory returns the entries needed by the chest gate: everything
// inside the trailing window plus the most recent entry even when it is
// older, so the per-chest cooldown always sees it.
func (r *HistoryRepository) ChestGateHistory(ctx context.Context, tx pgx.Tx, userID int64, since time.Time) ([]domain.ChestOpen, error) {
	recent, err := r.chestOpens(ctx, tx,
		`SELECT time_opened, xp, gold, summary FROM chest_opens
		 WHERE user_id = $1 AND time_opened >= $2
		 ORDER BY time_opened ASC`, userID, since)
	if err != nil {
		return nil, err
	}
	if len(recent) > 0 {
		return recent, nil
	}

	var last domain.ChestOpen
	err = tx.QueryRow(ctx,
		`SELECT time_opened, xp, gold, summary FROM chest_opens
		 WHERE user_id = $1 ORDER BY time_opened DESC LIMIT 1`, userID,
	).Scan(&last.TimeOpened, &last.XP, &last.Gold, &last.Summary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return []domain.ChestOpen{last}, nil
}

// LastChestOpen returns the most recent chest open, or nil when the user
// never opened one.
func (r *HistoryRepository) LastChestOpen(ctx context.Context, userID int64) (*domain.ChestOpen, error) {
	var last domain.ChestOpen
	err := r.db.QueryRow(ctx,
		`SELECT time_opened, xp, gold, summary FROM chest_opens
		 WHERE user_id = $1 ORDER BY time_opened DESC LIMIT 1`, userID,
	).Scan(&last.TimeOpened, &last.XP, &last.Gold, &last.Summary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &last, nil
}

func (r *HistoryRepository) AddTicketClaimWithTx(ctx context.Context, tx pgx.Tx, userID int64, c domain.TicketClaim) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ticket_claims (user_id, claimed_at, number_of_tickets, due_to, resetted, construction_days)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, c.ClaimedAt, c.NumberOfTickets, c.DueTo, c.Resetted, c.ConstructionDays,
	)
	return err
}

func (r *HistoryRepository) lastTicketClaim(ctx context.Context, q querier, userID int64, source domain.TicketSource) (*domain.TicketClaim, error) {
	var c domain.TicketClaim
	err := q.QueryRow(ctx,
		`SELECT claimed_at, number_of_tickets, due_to, resetted, construction_days, summary
		 FROM ticket_claims
		 WHERE user_id = $1 AND due_to = $2
		 ORDER BY claimed_at DESC LIMIT 1`,
		userID, source,
	).Scan(&c.ClaimedAt, &c.NumberOfTickets, &c.DueTo, &c.Resetted, &c.ConstructionDays, &c.Summary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// LastTicketClaim returns the most recent claim from the given source, or
// nil when the user never claimed.
func (r *HistoryRepository) LastTicketClaim(ctx context.Context, userID int64, source domain.TicketSource) (*domain.TicketClaim, error) {
	return r.lastTicketClaim(ctx, r.db, userID, source)
}

// LastTicketClaimWithTx is LastTicketClaim inside the locked transaction.
func (r *HistoryRepository) LastTicketClaimWithTx(ctx context.Context, tx pgx.Tx, userID int64, source domain.TicketSource) (*domain.TicketClaim, error) {
	return r.lastTicketClaim(ctx, tx, userID, source)
}

// TicketClaims returns the user's claim history, newest first.
func (r *HistoryRepository) TicketClaims(ctx context.Context, userID int64, limit int) ([]domain.TicketClaim, error) {
	rows, err := r.db.Query(ctx,
		`SELECT claimed_at, number_of_tickets, due_to, resetted, construction_days, summary
		 FROM ticket_claims
		 WHERE user_id = $1
		 ORDER BY claimed_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.TicketClaim
	for rows.Next() {
		var c domain.TicketClaim
		if err := rows.Scan(&c.ClaimedAt, &c.NumberOfTickets, &c.DueTo, &c.Resetted, &c.ConstructionDays, &c.Summary); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// AddTapEarningsWithTx folds a scored tap batch into the per-day bucket.
// The day column is the UTC calendar date.
func (r *HistoryRepository) AddTapEarningsWithTx(ctx context.Context, tx pgx.Tx, userID int64, day time.Time, xp, gold int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO tap_days (user_id, day, xp, gold)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, day) DO UPDATE
		 SET xp = tap_days.xp + EXCLUDED.xp, gold = tap_days.gold + EXCLUDED.gold`,
		userID, day, xp, gold,
	)
	return err
}

// TapDays returns the user's per-day tap earnings, oldest first.
func (r *HistoryRepository) TapDays(ctx context.Context, userID int64) ([]domain.TapDay, error) {
	rows, err := r.db.Query(ctx,
		`SELECT day, xp, gold, summary FROM tap_days WHERE user_id = $1 ORDER BY day ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.TapDay
	for rows.Next() {
		var d domain.TapDay
		if err := rows.Scan(&d.Day, &d.XP, &d.Gold, &d.Summary); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// AddTaskCompletionWithTx records a validated task reward. Reports false
// when the task was already recorded for this user.
func (r *HistoryRepository) AddTaskCompletionWithTx(ctx context.Context, tx pgx.Tx, userID int64, t domain.TaskCompletion) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO task_completions (user_id, task_id, xp, gold, validated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, task_id) DO NOTHING`,
		userID, t.TaskID, t.XP, t.Gold, t.ValidatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TaskCompletions returns the user's validated task rewards.
func (r *HistoryRepository) TaskCompletions(ctx context.Context, userID int64) ([]domain.TaskCompletion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT task_id, xp, gold, validated_at FROM task_completions
		 WHERE user_id = $1 ORDER BY validated_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.TaskCompletion
	for rows.Next() {
		var t domain.TaskCompletion
		if err := rows.Scan(&t.TaskID, &t.XP, &t.Gold, &t.ValidatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// Compact folds history entries older than the cutoff into a single summary
// row per user (per source for claims). The summary row is the newest
// pre-cutoff row, its XP/Gold replaced by the sums of everything folded and
// its summary flag set, so the gates keep their timestamp and season
// recomputation keeps its totals. For claims the newest row also carries the
// streak state; callers pass cutoffs older than the reset window, so the
// summed ticket count never feeds the escalator. Returns the number of rows
// folded away.
func (r *HistoryRepository) Compact(ctx context.Context, before time.Time) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64

	if _, err := tx.Exec(ctx, `
		UPDATE chest_opens c
		SET xp = agg.xp, gold = agg.gold, summary = TRUE
		FROM (
			SELECT user_id, MAX(time_opened) AS latest, SUM(xp) AS xp, SUM(gold) AS gold
			FROM chest_opens WHERE time_opened < $1
			GROUP BY user_id HAVING COUNT(*) > 1
		) agg
		WHERE c.user_id = agg.user_id AND c.time_opened = agg.latest`, before); err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, `
		DELETE FROM chest_opens c
		USING (
			SELECT id, ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY time_opened DESC, id DESC) AS rn
			FROM chest_opens WHERE time_opened < $1
		) ranked
		WHERE c.id = ranked.id AND ranked.rn > 1`, before)
	if err != nil {
		return 0, err
	}
	total += tag.RowsAffected()

	if _, err := tx.Exec(ctx, `
		UPDATE ticket_claims t
		SET number_of_tickets = agg.total, summary = TRUE
		FROM (
			SELECT user_id, due_to, MAX(claimed_at) AS latest, SUM(number_of_tickets) AS total
			FROM ticket_claims WHERE claimed_at < $1
			GROUP BY user_id, due_to HAVING COUNT(*) > 1
		) agg
		WHERE t.user_id = agg.user_id AND t.due_to = agg.due_to AND t.claimed_at = agg.latest`, before); err != nil {
		return 0, err
	}
	tag, err = tx.Exec(ctx, `
		DELETE FROM ticket_claims t
		USING (
			SELECT id, ROW_NUMBER() OVER (PARTITION BY user_id, due_to ORDER BY claimed_at DESC, id DESC) AS rn
			FROM ticket_claims WHERE claimed_at < $1
		) ranked
		WHERE t.id = ranked.id AND ranked.rn > 1`, before)
	if err != nil {
		return 0, err
	}
	total += tag.RowsAffected()

	if _, err := tx.Exec(ctx, `
		UPDATE tap_days d
		SET xp = agg.xp, gold = agg.gold, summary = TRUE
		FROM (
			SELECT user_id, MAX(day) AS latest, SUM(xp) AS xp, SUM(gold) AS gold
			FROM tap_days WHERE day < $1
			GROUP BY user_id HAVING COUNT(*) > 1
		) agg
		WHERE d.user_id = agg.user_id AND d.day = agg.latest`, before); err != nil {
		return 0, err
	}
	tag, err = tx.Exec(ctx, `
		DELETE FROM tap_days d
		USING (
			SELECT user_id, MAX(day) AS latest FROM tap_days
			WHERE day < $1 GROUP BY user_id
		) keep
		WHERE d.user_id = keep.user_id AND d.day < $1 AND d.day < keep.latest`, before)
	if err != nil {
		return 0, err
	}
	total += tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return total, nil
}
