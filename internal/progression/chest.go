package progression

import (
	"math/rand"
	"time"

	"catacomb_backend/internal/domain"
)

const dailyLimitWindow = 24 * time.Hour

// ChestGate evaluates whether a chest open is allowed and what it pays.
// Rand can be overridden in tests; it defaults to math/rand.Intn.
type ChestGate struct {
	Settings domain.Settings
	Rand     func(n int) int
}

// ChestDecision is a granted chest open, ready to append to history.
type ChestDecision struct {
	OpenedAt time.Time `json:"time_opened"`
	XP       int64     `json:"xp"`
	Gold     int64     `json:"gold"`
}

// Evaluate runs the chest gating sequence for a single user:
//
//  1. per-chest cooldown against the last history entry (skipped when the
//     history is empty, a fresh user can open immediately);
//  2. the 24h hard block anchored at limited_time, if one is running;
//  3. the trailing-24h count against daily_opening_chests_limit, which
//     starts the hard block when exceeded.
//
// On success the gold reward is drawn uniformly from the settings table.
func (g ChestGate) Evaluate(history []domain.ChestOpen, limitedTime *time.Time, secondsForNext int64, now time.Time) (*ChestDecision, error) {
	if len(history) > 0 {
		last := history[len(history)-1]
		elapsed := now.Sub(last.TimeOpened)
		cooldown := time.Duration(secondsForNext) * time.Second
		if elapsed < cooldown {
			return nil, &CooldownActiveError{Remaining: cooldown - elapsed}
		}
	}

	if limitedTime != nil {
		sinceBlock := now.Sub(*limitedTime)
		if sinceBlock < dailyLimitWindow {
			return nil, &DailyLimitError{Remaining: dailyLimitWindow - sinceBlock}
		}
	}

	opened := 0
	for _, c := range history {
		if now.Sub(c.TimeOpened) <= dailyLimitWindow {
			opened++
		}
	}
	if opened >= g.Settings.DailyOpeningChestsLimit {
		return nil, &DailyLimitError{Remaining: dailyLimitWindow, JustStarted: true}
	}

	golds := g.Settings.OpeningChestGolds
	if len(golds) == 0 {
		golds = []int64{0}
	}
	intn := g.Rand
	if intn == nil {
		intn = rand.Intn
	}

	return &ChestDecision{
		OpenedAt: now,
		XP:       g.Settings.OpeningChestXP,
		Gold:     golds[intn(len(golds))],
	}, nil
}

// NextOpeningIn returns how long until the next chest can be opened, using
// the user's creation time when the history is empty. Zero means available.
func NextOpeningIn(history []domain.ChestOpen, createdAt time.Time, secondsForNext int64, now time.Time) time.Duration {
	anchor := createdAt
	if len(history) > 0 {
		anchor = history[len(history)-1].TimeOpened
	}
	cooldown := time.Duration(secondsForNext) * time.Second
	elapsed := now.Sub(anchor)
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}
