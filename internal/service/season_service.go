package service

import (
	"context"
	"errors"
	"time"

	"catacomb_backend/internal/domain"
	"catacomb_backend/internal/logger"
	"catacomb_backend/internal/progression"
	"catacomb_backend/internal/repository"
)

var ErrNotRanked = errors.New("user is not ranked")

// SeasonService aggregates season totals from the raw histories and serves
// the leaderboard.
type SeasonService struct {
	users     *repository.UserRepository
	history   *repository.HistoryRepository
	referrals *repository.ReferralRepository
	seasons   *repository.SeasonRepository
}

func NewSeasonService(
	users *repository.UserRepository,
	history *repository.HistoryRepository,
	referrals *repository.ReferralRepository,
	seasons *repository.SeasonRepository,
) *SeasonService {
	return &SeasonService{users: users, history: history, referrals: referrals, seasons: seasons}
}

func (s *SeasonService) Current(ctx context.Context) (*domain.Season, error) {
	return s.seasons.Current(ctx, time.Now())
}

// Recompute rebuilds one user's season totals from the histories and writes
// them back to the cached columns.
func (s *SeasonService) Recompute(ctx context.Context, userID int64) (progression.SeasonTotals, error) {
	season, err := s.seasons.Current(ctx, time.Now())
	if err != nil {
		return progression.SeasonTotals{}, err
	}

	chests, err := s.history.ChestOpens(ctx, userID)
	if err != nil {
		return progression.SeasonTotals{}, err
	}
	tasks, err := s.history.TaskCompletions(ctx, userID)
	if err != nil {
		return progression.SeasonTotals{}, err
	}
	taps, err := s.history.TapDays(ctx, userID)
	if err != nil {
		return progression.SeasonTotals{}, err
	}
	referrals, err := s.referrals.ValidReferrals(ctx, userID)
	if err != nil {
		return progression.SeasonTotals{}, err
	}

	totals := progression.AggregateSeason(chests, tasks, taps, referrals, *season)
	if err := s.users.SetSeasonTotals(ctx, userID, totals.XP, totals.Gold); err != nil {
		return progression.SeasonTotals{}, err
	}
	return totals, nil
}

// RecomputeAll rebuilds every user's season totals. Used after a season
// rollover or a manual correction; per-user failures are logged and the
// sweep continues.
func (s *SeasonService) RecomputeAll(ctx context.Context) error {
	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.Recompute(ctx, id); err != nil {
			logger.Error("season recompute failed", "user_id", id, "error", err)
		}
	}
	return nil
}

func (s *SeasonService) rankedEntries(ctx context.Context) ([]progression.RankEntry, error) {
	rows, err := s.users.ListSeasonRows(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]progression.RankEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, progression.RankEntry{
			UserID:     r.UserID,
			Username:   r.Username,
			SeasonXP:   r.SeasonXP,
			SeasonGold: r.SeasonGold,
		})
	}
	return progression.Rank(entries), nil
}

// Leaderboard returns the top rows plus the requester's own row when they
// rank below the cut. requesterID <= 0 skips the self lookup.
func (s *SeasonService) Leaderboard(ctx context.Context, requesterID int64) ([]progression.RankEntry, error) {
	ranked, err := s.rankedEntries(ctx)
	if err != nil {
		return nil, err
	}
	return progression.Top(ranked, progression.TopSize, requesterID), nil
}

// MyRank returns the requester's leaderboard row.
func (s *SeasonService) MyRank(ctx context.Context, userID int64) (progression.RankEntry, error) {
	ranked, err := s.rankedEntries(ctx)
	if err != nil {
		return progression.RankEntry{}, err
	}
	for _, e := range ranked {
		if e.UserID == userID {
			return e, nil
		}
	}
	return progression.RankEntry{}, ErrNotRanked
}

// Compact folds history entries that predate the current season into
// per-user summary rows, so past season totals stay recomputable.
func (s *SeasonService) Compact(ctx context.Context) (int64, error) {
	season, err := s.seasons.Current(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	folded, err := s.history.Compact(ctx, season.Start)
	if err != nil {
		return 0, err
	}
	logger.Info("history compacted", "folded", folded, "before", season.Start)
	return folded, nil
}
