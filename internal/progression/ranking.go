package progression

import "sort"

// TopSize is how many leaderboard rows a ranking read returns.
const TopSize = 15

// RankEntry is one leaderboard row.
type RankEntry struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	SeasonXP   int64  `json:"season_xp"`
	SeasonGold int64  `json:"season_gold"`
	Rank       int    `json:"rank"`
}

// Rank sorts entries descending by season XP (season gold breaks ties) and
// assigns dense 1-based ranks: users with identical totals share a rank and
// the next distinct total gets the following one. Blocked users must be
// filtered out before calling.
func Rank(entries []RankEntry) []RankEntry {
	ranked := make([]RankEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].SeasonXP != ranked[j].SeasonXP {
			return ranked[i].SeasonXP > ranked[j].SeasonXP
		}
		return ranked[i].SeasonGold > ranked[j].SeasonGold
	})

	rank := 0
	for i := range ranked {
		if i == 0 || ranked[i].SeasonXP != ranked[i-1].SeasonXP || ranked[i].SeasonGold != ranked[i-1].SeasonGold {
			rank++
		}
		ranked[i].Rank = rank
	}
	return ranked
}

// Top returns the first n ranked entries plus, when the requesting user is
// ranked but outside that slice, their own row appended at the end.
// requesterID <= 0 skips the self lookup.
func Top(ranked []RankEntry, n int, requesterID int64) []RankEntry {
	if n > len(ranked) {
		n = len(ranked)
	}
	top := make([]RankEntry, n)
	copy(top, ranked[:n])

	if requesterID <= 0 {
		return top
	}
	for _, e := range top {
		if e.UserID == requesterID {
			return top
		}
	}
	for _, e := range ranked[n:] {
		if e.UserID == requesterID {
			return append(top, e)
		}
	}
	return top
}
