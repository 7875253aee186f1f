package progression

import (
	"testing"
	"time"

	"catacomb_backend/internal/domain"
)

func testSeason() domain.Season {
	return domain.Season{
		Number: 3,
		Start:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	}
}

func TestAggregateSeason(t *testing.T) {
	season := testSeason()
	inside := season.Start.Add(48 * time.Hour)

	chests := []domain.ChestOpen{
		{TimeOpened: inside, XP: 50, Gold: 100},
		{TimeOpened: season.Start.Add(-time.Hour), XP: 50, Gold: 100}, // before window
		{TimeOpened: season.End, XP: 50, Gold: 100},                   // end is exclusive
	}
	tasks := []domain.TaskCompletion{
		{ValidatedAt: inside, XP: 400, Gold: 300},
	}
	taps := []domain.TapDay{
		{Day: inside, XP: 20, Gold: 30},
		{Day: season.End.Add(24 * time.Hour), XP: 20, Gold: 30},
	}
	referrals := []domain.ValidReferral{
		{ReferredID: 1, TimeAdded: inside},
		{ReferredID: 2, TimeAdded: season.End.Add(time.Second)},
	}

	got := AggregateSeason(chests, tasks, taps, referrals, season)
	want := SeasonTotals{XP: 50 + 400 + 20 + ReferralSeasonXP, Gold: 100 + 300 + 30}
	if got != want {
		t.Fatalf("AggregateSeason = %+v; want %+v", got, want)
	}
}

func TestAggregateSeasonBoundaries(t *testing.T) {
	season := testSeason()

	// an entry exactly at start counts, one at end does not
	atStart := AggregateSeason([]domain.ChestOpen{{TimeOpened: season.Start, XP: 10, Gold: 5}}, nil, nil, nil, season)
	if atStart.XP != 10 || atStart.Gold != 5 {
		t.Fatalf("entry at start must count, got %+v", atStart)
	}

	atEnd := AggregateSeason([]domain.ChestOpen{{TimeOpened: season.End, XP: 10, Gold: 5}}, nil, nil, nil, season)
	if atEnd.XP != 0 || atEnd.Gold != 0 {
		t.Fatalf("entry at end must not count, got %+v", atEnd)
	}
}

func TestAggregateSeasonMovingEntryAcrossBoundary(t *testing.T) {
	season := testSeason()
	entry := domain.ChestOpen{TimeOpened: season.End.Add(-time.Second), XP: 33, Gold: 44}

	in := AggregateSeason([]domain.ChestOpen{entry}, nil, nil, nil, season)

	entry.TimeOpened = season.End.Add(time.Second)
	out := AggregateSeason([]domain.ChestOpen{entry}, nil, nil, nil, season)

	if in.XP-out.XP != 33 || in.Gold-out.Gold != 44 {
		t.Fatalf("moving the entry across the boundary must change totals by exactly its values: in=%+v out=%+v", in, out)
	}
}
