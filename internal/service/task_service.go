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

// TaskService credits rewards for externally validated tasks.
type TaskService struct {
	db        *pgxpool.Pool
	users     *repository.UserRepository
	history   *repository.HistoryRepository
	events    *repository.RewardEventRepository
	catalogs  *catalog.Store
	referrals *ReferralService
}

func NewTaskService(
	db *pgxpool.Pool,
	users *repository.UserRepository,
	history *repository.HistoryRepository,
	events *repository.RewardEventRepository,
	catalogs *catalog.Store,
	referrals *ReferralService,
) *TaskService {
	return &TaskService{db: db, users: users, history: history, events: events, catalogs: catalogs, referrals: referrals}
}

// Complete records the task completion and pays its reward once. A repeated
// completion of the same task is rejected.
func (s *TaskService) Complete(ctx context.Context, userID, taskID, xp, gold int64) error {
	snap, err := s.catalogs.Current()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u, err := s.users.GetForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.Blocked {
		return ErrUserBlocked
	}

	inserted, err := s.history.AddTaskCompletionWithTx(ctx, tx, userID, domain.TaskCompletion{
		TaskID:      taskID,
		XP:          xp,
		Gold:        gold,
		ValidatedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		rewardOps.WithLabelValues("task", "rejected").Inc()
		return progression.ErrAlreadyClaimed
	}

	if err := s.users.ApplyRewardWithTx(ctx, tx, userID, xp, gold); err != nil {
		return err
	}
	if err := s.events.AddWithTx(ctx, tx, &domain.RewardEvent{
		UserID: userID,
		Kind:   domain.RewardTask,
		XP:     xp,
		Gold:   gold,
	}); err != nil {
		return err
	}
	bonus, err := grantLevelBonus(ctx, tx, s.users, s.events, snap, u, u.XP+xp)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	rewardOps.WithLabelValues("task", "ok").Inc()

	s.referrals.Cascade(ctx, u, gold+bonus, u.Gold+gold+bonus)
	return nil
}
