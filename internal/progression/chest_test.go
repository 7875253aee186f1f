package progression

import (
	"errors"
	"testing"
	"time"

	"catacomb_backend/internal/domain"
)

func chestSettings() domain.Settings {
	return domain.Settings{
		OpeningChestGolds:       []int64{75, 100, 125, 150},
		OpeningChestXP:          50,
		DailyOpeningChestsLimit: 60,
	}
}

func TestChestOpenFreshUser(t *testing.T) {
	gate := ChestGate{Settings: chestSettings()}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d, err := gate.Evaluate(nil, nil, 120, now)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.XP != 50 {
		t.Fatalf("xp = %d; want 50", d.XP)
	}
	valid := map[int64]bool{75: true, 100: true, 125: true, 150: true}
	if !valid[d.Gold] {
		t.Fatalf("gold = %d; not in settings table", d.Gold)
	}
}

func TestChestCooldown(t *testing.T) {
	gate := ChestGate{Settings: chestSettings()}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	history := []domain.ChestOpen{{TimeOpened: now.Add(-60 * time.Second), XP: 50, Gold: 100}}

	_, err := gate.Evaluate(history, nil, 120, now)
	var cd *CooldownActiveError
	if !errors.As(err, &cd) {
		t.Fatalf("expected CooldownActiveError, got %v", err)
	}
	if cd.Remaining != 60*time.Second {
		t.Fatalf("remaining = %s; want 60s", cd.Remaining)
	}

	// exactly at the cooldown boundary the open succeeds
	if _, err := gate.Evaluate(history, nil, 120, now.Add(60*time.Second)); err != nil {
		t.Fatalf("Evaluate at boundary: %v", err)
	}
}

func TestChestTwoAttemptsOneSuccess(t *testing.T) {
	gate := ChestGate{Settings: chestSettings()}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var history []domain.ChestOpen
	successes := 0
	for _, at := range []time.Time{start, start.Add(30 * time.Second)} {
		d, err := gate.Evaluate(history, nil, 120, at)
		if err == nil {
			successes++
			history = append(history, domain.ChestOpen{TimeOpened: d.OpenedAt, XP: d.XP, Gold: d.Gold})
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d; want 1", successes)
	}
	if len(history) != 1 {
		t.Fatalf("history entries = %d; want 1", len(history))
	}
}

func TestChestDailyLimit(t *testing.T) {
	s := chestSettings()
	s.DailyOpeningChestsLimit = 2
	gate := ChestGate{Settings: s}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	history := []domain.ChestOpen{
		{TimeOpened: now.Add(-10 * time.Hour)},
		{TimeOpened: now.Add(-5 * time.Hour)},
	}

	_, err := gate.Evaluate(history, nil, 120, now)
	var dl *DailyLimitError
	if !errors.As(err, &dl) {
		t.Fatalf("expected DailyLimitError, got %v", err)
	}
	if !dl.JustStarted {
		t.Fatalf("expected the limit block to start on this attempt")
	}
	if dl.Remaining != 24*time.Hour {
		t.Fatalf("remaining = %s; want 24h", dl.Remaining)
	}
}

func TestChestHardBlockCountdown(t *testing.T) {
	gate := ChestGate{Settings: chestSettings()}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	blockStart := now.Add(-20 * time.Hour)

	_, err := gate.Evaluate(nil, &blockStart, 120, now)
	var dl *DailyLimitError
	if !errors.As(err, &dl) {
		t.Fatalf("expected DailyLimitError, got %v", err)
	}
	if dl.JustStarted {
		t.Fatalf("running block must not restart")
	}
	if dl.Remaining != 4*time.Hour {
		t.Fatalf("remaining = %s; want 4h", dl.Remaining)
	}

	// block expired, old history aged out of the trailing window
	expired := now.Add(5 * time.Hour)
	if _, err := gate.Evaluate(nil, &blockStart, 120, expired); err != nil {
		t.Fatalf("Evaluate after block: %v", err)
	}
}

func TestNextOpeningIn(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-30 * time.Second)

	// fresh user counts down from account creation
	if got := NextOpeningIn(nil, created, 120, now); got != 90*time.Second {
		t.Fatalf("NextOpeningIn fresh = %s; want 90s", got)
	}

	history := []domain.ChestOpen{{TimeOpened: now.Add(-200 * time.Second)}}
	if got := NextOpeningIn(history, created, 120, now); got != 0 {
		t.Fatalf("NextOpeningIn elapsed = %s; want 0", got)
	}
}
