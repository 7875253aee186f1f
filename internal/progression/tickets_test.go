package progression

import (
	"testing"
	"time"

	"catacomb_backend/internal/domain"
)

func dailyClaim(at time.Time, tickets int64, resetted bool, days int) *domain.TicketClaim {
	return &domain.TicketClaim{
		ClaimedAt:        at,
		NumberOfTickets:  tickets,
		DueTo:            domain.TicketSourceDaily,
		Resetted:         resetted,
		ConstructionDays: days,
	}
}

func TestNextDailyClaimFirstEver(t *testing.T) {
	got := NextDailyClaim(nil, time.Now())
	want := DailyClaimState{Claimable: 1, Resetted: true, ConstructionDays: 1}
	if got != want {
		t.Fatalf("NextDailyClaim(nil) = %+v; want %+v", got, want)
	}
	if got.Tickets() != 5 {
		t.Fatalf("Tickets() = %d; want 5", got.Tickets())
	}
}

func TestNextDailyClaimStateMachine(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		last *domain.TicketClaim
		want DailyClaimState
	}{
		{
			name: "second claim too early",
			last: dailyClaim(now.Add(-10*time.Hour), 5, true, 1),
			want: DailyClaimState{Claimable: 0, Resetted: false, ConstructionDays: 2},
		},
		{
			name: "day two after reset",
			last: dailyClaim(now.Add(-25*time.Hour), 5, true, 1),
			want: DailyClaimState{Claimable: 1, Resetted: false, ConstructionDays: 2},
		},
		{
			name: "day three escalates",
			last: dailyClaim(now.Add(-25*time.Hour), 5, false, 2),
			want: DailyClaimState{Claimable: 2, Resetted: false, ConstructionDays: 2},
		},
		{
			name: "day four escalates",
			last: dailyClaim(now.Add(-25*time.Hour), 10, false, 3),
			want: DailyClaimState{Claimable: 3, Resetted: false, ConstructionDays: 3},
		},
		{
			name: "escalation caps at four units",
			last: dailyClaim(now.Add(-25*time.Hour), 20, false, 4),
			want: DailyClaimState{Claimable: 4, Resetted: false, ConstructionDays: 5},
		},
		{
			name: "streak keeps counting past the threshold",
			last: dailyClaim(now.Add(-25*time.Hour), 20, false, 5),
			want: DailyClaimState{Claimable: 4, Resetted: false, ConstructionDays: 6},
		},
		{
			name: "miss a day resets everything",
			last: dailyClaim(now.Add(-49*time.Hour), 20, false, 6),
			want: DailyClaimState{Claimable: 1, Resetted: true, ConstructionDays: 1},
		},
	}

	for _, tc := range cases {
		if got := NextDailyClaim(tc.last, now); got != tc.want {
			t.Fatalf("%s: got %+v; want %+v", tc.name, got, tc.want)
		}
	}
}

func TestDailyClaimBonusEligible(t *testing.T) {
	if (DailyClaimState{Claimable: 4, ConstructionDays: 5}).BonusEligible() != true {
		t.Fatalf("day 5 claim must pay the construction bonus")
	}
	if (DailyClaimState{Claimable: 4, ConstructionDays: 4}).BonusEligible() {
		t.Fatalf("day 4 claim must not pay the bonus")
	}
	if (DailyClaimState{Claimable: 0, ConstructionDays: 6}).BonusEligible() {
		t.Fatalf("a zero claim never pays the bonus")
	}
}

func TestCanClaimAdTicket(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if ok, _ := CanClaimAdTicket(nil, now); !ok {
		t.Fatalf("first ad claim must be allowed")
	}

	last := &domain.TicketClaim{ClaimedAt: now.Add(-11 * time.Hour), DueTo: domain.TicketSourceAd}
	ok, remaining := CanClaimAdTicket(last, now)
	if ok {
		t.Fatalf("claim within 12h must be rejected")
	}
	if remaining != time.Hour {
		t.Fatalf("remaining = %s; want 1h", remaining)
	}

	last = &domain.TicketClaim{ClaimedAt: now.Add(-12*time.Hour - time.Second), DueTo: domain.TicketSourceAd}
	if ok, _ := CanClaimAdTicket(last, now); !ok {
		t.Fatalf("claim 12h+1s later must be allowed")
	}
}
