package progression

import (
	"testing"

	"catacomb_backend/internal/domain"
)

func testLevels() []domain.Level {
	return []domain.Level{
		{Level: 1, XPRequired: 0, SecondsForNextChestOpening: 120, OneTimeBonusRewards: 0},
		{Level: 2, XPRequired: 5000, SecondsForNextChestOpening: 100, OneTimeBonusRewards: 500},
		{Level: 3, XPRequired: 15000, SecondsForNextChestOpening: 80, OneTimeBonusRewards: 500},
	}
}

func TestLevelFor(t *testing.T) {
	cat, err := NewLevelCatalog(testLevels())
	if err != nil {
		t.Fatalf("NewLevelCatalog: %v", err)
	}

	cases := []struct {
		xp      int64
		level   int
		seconds int64
		pct     float64
	}{
		{0, 1, 120, 0},
		{4000, 1, 120, 80},
		{5000, 2, 100, 5000.0 / 15000 * 100},
		{14999, 2, 100, 14999.0 / 15000 * 100},
		{15000, 3, 80, 100},
		{999999, 3, 80, 100},
	}

	for _, tc := range cases {
		info := cat.LevelFor(tc.xp)
		if info.Level.Level != tc.level {
			t.Fatalf("LevelFor(%d) level = %d; want %d", tc.xp, info.Level.Level, tc.level)
		}
		if info.Level.SecondsForNextChestOpening != tc.seconds {
			t.Fatalf("LevelFor(%d) seconds = %d; want %d", tc.xp, info.Level.SecondsForNextChestOpening, tc.seconds)
		}
		if info.PercentageToNextLevel != tc.pct {
			t.Fatalf("LevelFor(%d) pct = %v; want %v", tc.xp, info.PercentageToNextLevel, tc.pct)
		}
	}
}

func TestLevelForMonotonic(t *testing.T) {
	cat, err := NewLevelCatalog(testLevels())
	if err != nil {
		t.Fatalf("NewLevelCatalog: %v", err)
	}

	prev := 0
	for xp := int64(0); xp <= 20000; xp += 500 {
		level := cat.LevelFor(xp).Level.Level
		if level < prev {
			t.Fatalf("level dropped from %d to %d at xp=%d", prev, level, xp)
		}
		prev = level
	}
}

func TestLevelForUnsortedInput(t *testing.T) {
	levels := testLevels()
	levels[0], levels[2] = levels[2], levels[0]

	cat, err := NewLevelCatalog(levels)
	if err != nil {
		t.Fatalf("NewLevelCatalog: %v", err)
	}
	if got := cat.LevelFor(6000).Level.Level; got != 2 {
		t.Fatalf("LevelFor(6000) = %d; want 2", got)
	}
}

func TestNewLevelCatalogEmpty(t *testing.T) {
	if _, err := NewLevelCatalog(nil); err != ErrEmptyCatalog {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestTapLevelForUserLevel(t *testing.T) {
	cat := NewTapLevelCatalog([]domain.TapGameLevel{
		{TapLevel: 1, RequiredUserLevels: []int{1, 2}, TapLimitPerTicket: 50},
		{TapLevel: 2, RequiredUserLevels: []int{2, 3}, TapLimitPerTicket: 75},
	})

	tl, err := cat.ForUserLevel(2)
	if err != nil {
		t.Fatalf("ForUserLevel(2): %v", err)
	}
	// level 2 appears in both sets, the highest tap level must win
	if tl.TapLevel != 2 {
		t.Fatalf("ForUserLevel(2) tap level = %d; want 2", tl.TapLevel)
	}

	if _, err := cat.ForUserLevel(9); err != ErrTapLevelNotFound {
		t.Fatalf("expected ErrTapLevelNotFound, got %v", err)
	}
}
