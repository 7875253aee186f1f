package progression

import (
	"catacomb_backend/internal/domain"
)

// ReferralSeasonXP is the XP weight of one valid referral added inside a
// season window.
const ReferralSeasonXP = 50

// SeasonTotals is a user's XP/Gold earned inside one season window.
type SeasonTotals struct {
	XP   int64 `json:"season_xp"`
	Gold int64 `json:"season_gold"`
}

// AggregateSeason recomputes a user's season totals from the raw histories.
// Only entries inside [season.Start, season.End) count; valid referrals
// contribute a fixed XP weight and no gold. There is no incremental state:
// the histories are the source of truth.
func AggregateSeason(
	chests []domain.ChestOpen,
	tasks []domain.TaskCompletion,
	taps []domain.TapDay,
	referrals []domain.ValidReferral,
	season domain.Season,
) SeasonTotals {
	var t SeasonTotals

	for _, c := range chests {
		if season.Contains(c.TimeOpened) {
			t.XP += c.XP
			t.Gold += c.Gold
		}
	}
	for _, task := range tasks {
		if season.Contains(task.ValidatedAt) {
			t.XP += task.XP
			t.Gold += task.Gold
		}
	}
	for _, day := range taps {
		if season.Contains(day.Day) {
			t.XP += day.XP
			t.Gold += day.Gold
		}
	}
	for _, r := range referrals {
		if season.Contains(r.TimeAdded) {
			t.XP += ReferralSeasonXP
		}
	}

	return t
}
