package progression

import (
	"sort"

	"catacomb_backend/internal/domain"
)

// LevelInfo is the result of a level lookup.
type LevelInfo struct {
	Level                 domain.Level `json:"level"`
	PercentageToNextLevel float64      `json:"percentage_to_next_level"`
}

// LevelCatalog is an immutable, sorted view of the level table. It is the
// bounded replacement for the old per-XP memo: the table itself is small,
// so lookups stay pure functions over it.
type LevelCatalog struct {
	levels []domain.Level
}

// NewLevelCatalog copies and sorts the level rows ascending by xp_required.
func NewLevelCatalog(levels []domain.Level) (*LevelCatalog, error) {
	if len(levels) == 0 {
		return nil, ErrEmptyCatalog
	}
	sorted := make([]domain.Level, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].XPRequired < sorted[j].XPRequired
	})
	return &LevelCatalog{levels: sorted}, nil
}

// LevelFor returns the highest level whose xp_required <= xp, falling back
// to the first level. PercentageToNextLevel is xp relative to the next
// threshold; it is 100 at the last level and deliberately not capped below
// it (XP can overshoot a threshold between recomputes).
func (c *LevelCatalog) LevelFor(xp int64) LevelInfo {
	idx := 0
	for i, lvl := range c.levels {
		if lvl.XPRequired <= xp {
			idx = i
		} else {
			break
		}
	}

	info := LevelInfo{Level: c.levels[idx]}
	if idx == len(c.levels)-1 {
		info.PercentageToNextLevel = 100
		return info
	}

	next := c.levels[idx+1]
	if next.XPRequired > 0 {
		info.PercentageToNextLevel = float64(xp) / float64(next.XPRequired) * 100
	}
	return info
}

// ByNumber returns the level row with the given level number.
func (c *LevelCatalog) ByNumber(level int) (domain.Level, bool) {
	for _, lvl := range c.levels {
		if lvl.Level == level {
			return lvl, true
		}
	}
	return domain.Level{}, false
}

// Levels returns the sorted rows, for read endpoints.
func (c *LevelCatalog) Levels() []domain.Level {
	return c.levels
}

// TapLevelCatalog resolves tap game levels from user levels.
type TapLevelCatalog struct {
	levels []domain.TapGameLevel
}

// NewTapLevelCatalog copies and sorts the rows descending by tap_level, so
// lookups pick the highest matching tap level first.
func NewTapLevelCatalog(levels []domain.TapGameLevel) *TapLevelCatalog {
	sorted := make([]domain.TapGameLevel, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TapLevel > sorted[j].TapLevel
	})
	return &TapLevelCatalog{levels: sorted}
}

// ForUserLevel returns the highest tap level whose required_user_levels set
// contains the given user level.
func (c *TapLevelCatalog) ForUserLevel(userLevel int) (domain.TapGameLevel, error) {
	for _, tl := range c.levels {
		for _, req := range tl.RequiredUserLevels {
			if req == userLevel {
				return tl, nil
			}
		}
	}
	return domain.TapGameLevel{}, ErrTapLevelNotFound
}

// Levels returns the sorted rows, for read endpoints.
func (c *TapLevelCatalog) Levels() []domain.TapGameLevel {
	return c.levels
}
