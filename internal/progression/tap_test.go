package progression

import (
	"testing"

	"catacomb_backend/internal/domain"
)

func tapLevel() domain.TapGameLevel {
	return domain.TapGameLevel{
		TapLevel:          1,
		XPEarningPerTap:   2,
		GoldEarningPerTap: 3,
		TapLimitPerTicket: 50,
	}
}

func TestConvertTicket(t *testing.T) {
	if _, err := ConvertTicket(0, 0, tapLevel()); err != ErrNoTickets {
		t.Fatalf("expected ErrNoTickets, got %v", err)
	}

	// taps remaining: report without consuming
	res, err := ConvertTicket(3, 7, tapLevel())
	if err != nil {
		t.Fatalf("ConvertTicket: %v", err)
	}
	if res.Consumed || res.AvailableTaps != 7 {
		t.Fatalf("got %+v; want unconsumed with 7 taps", res)
	}

	res, err = ConvertTicket(3, 0, tapLevel())
	if err != nil {
		t.Fatalf("ConvertTicket: %v", err)
	}
	if !res.Consumed || res.AvailableTaps != 50 {
		t.Fatalf("got %+v; want consumed with 50 taps", res)
	}
}

func TestScoreTaps(t *testing.T) {
	lvl := tapLevel()

	cases := []struct {
		name      string
		count     int64
		available int64
		xpUnits   int64
		goldUnits int64
		spent     int64
	}{
		{"even split", 6, 20, 3, 3, 6},
		{"odd extra to gold when taps odd", 7, 21, 3, 4, 7},
		{"odd extra to xp when taps even", 7, 20, 4, 3, 7},
		{"single tap odd energy", 1, 5, 0, 1, 1},
		{"single tap even energy", 1, 4, 1, 0, 1},
		{"count clamped to remaining energy", 10, 4, 2, 2, 4},
		{"clamped odd remainder", 10, 5, 2, 3, 5},
	}

	for _, tc := range cases {
		score, err := ScoreTaps(tc.count, tc.available, lvl)
		if err != nil {
			t.Fatalf("%s: ScoreTaps: %v", tc.name, err)
		}
		if score.XPUnits != tc.xpUnits || score.GoldUnits != tc.goldUnits {
			t.Fatalf("%s: units = (%d,%d); want (%d,%d)", tc.name, score.XPUnits, score.GoldUnits, tc.xpUnits, tc.goldUnits)
		}
		if score.Spent != tc.spent {
			t.Fatalf("%s: spent = %d; want %d", tc.name, score.Spent, tc.spent)
		}
		if score.XP != tc.xpUnits*lvl.XPEarningPerTap {
			t.Fatalf("%s: xp = %d; want %d", tc.name, score.XP, tc.xpUnits*lvl.XPEarningPerTap)
		}
		if score.Gold != tc.goldUnits*lvl.GoldEarningPerTap {
			t.Fatalf("%s: gold = %d; want %d", tc.name, score.Gold, tc.goldUnits*lvl.GoldEarningPerTap)
		}
	}
}

func TestScoreTapsErrors(t *testing.T) {
	if _, err := ScoreTaps(0, 10, tapLevel()); err != ErrInvalidTapCount {
		t.Fatalf("expected ErrInvalidTapCount, got %v", err)
	}
	if _, err := ScoreTaps(-3, 10, tapLevel()); err != ErrInvalidTapCount {
		t.Fatalf("expected ErrInvalidTapCount, got %v", err)
	}
	if _, err := ScoreTaps(5, 0, tapLevel()); err != ErrNoTaps {
		t.Fatalf("expected ErrNoTaps, got %v", err)
	}
}
