package progression

import (
	"time"

	"catacomb_backend/internal/domain"
)

const (
	// TicketsPerUnit scales a claimable unit into actual tickets.
	TicketsPerUnit = 5
	// AdTickets is the fixed reward of an ad claim.
	AdTickets = 10

	dailyWindow = 24 * time.Hour
	resetWindow = 48 * time.Hour
	adWindow    = 12 * time.Hour

	maxClaimableUnits = 4
	// bonusThreshold is the construction-days streak after which a claim
	// also pays the construction bonus XP.
	bonusThreshold = 4
)

// DailyClaimState is the outcome of evaluating the daily ticket state
// machine. Claimable == 0 means the claim window has not reopened.
type DailyClaimState struct {
	Claimable        int  `json:"claimable"`
	Resetted         bool `json:"resetted"`
	ConstructionDays int  `json:"construction_days"`
}

// Tickets is the number of tickets this state pays out.
func (s DailyClaimState) Tickets() int64 {
	return int64(s.Claimable) * TicketsPerUnit
}

// BonusEligible reports whether the claim also pays the construction bonus.
func (s DailyClaimState) BonusEligible() bool {
	return s.Claimable > 0 && s.ConstructionDays > bonusThreshold
}

// NextDailyClaim advances the construction-days state machine. The state is
// carried entirely in the most recent daily history entry:
//
//   - no prior entry or >=48h elapsed: fresh start, 1 unit;
//   - 24h..48h after a resetted claim: 1 unit, construction day 2;
//   - 24h..48h otherwise: escalate up to 4 units, streak keeps counting
//     past the bonus threshold;
//   - <24h: nothing claimable, streak carried forward.
func NextDailyClaim(last *domain.TicketClaim, now time.Time) DailyClaimState {
	if last == nil {
		return DailyClaimState{Claimable: 1, Resetted: true, ConstructionDays: 1}
	}

	elapsed := now.Sub(last.ClaimedAt)

	if elapsed >= resetWindow {
		return DailyClaimState{Claimable: 1, Resetted: true, ConstructionDays: 1}
	}

	prevUnits := int(last.NumberOfTickets / TicketsPerUnit)
	carried := prevUnits + 1
	if last.ConstructionDays > bonusThreshold {
		carried = last.ConstructionDays + 1
	}

	if elapsed >= dailyWindow {
		if last.Resetted {
			return DailyClaimState{Claimable: 1, Resetted: false, ConstructionDays: 2}
		}
		claimable := prevUnits + 1
		if claimable > maxClaimableUnits {
			claimable = maxClaimableUnits
		}
		return DailyClaimState{Claimable: claimable, Resetted: false, ConstructionDays: carried}
	}

	return DailyClaimState{Claimable: 0, Resetted: false, ConstructionDays: carried}
}

// CanClaimAdTicket reports whether an ad ticket claim is allowed given the
// most recent ad claim, plus the remaining wait when it is not.
func CanClaimAdTicket(last *domain.TicketClaim, now time.Time) (bool, time.Duration) {
	if last == nil {
		return true, 0
	}
	elapsed := now.Sub(last.ClaimedAt)
	if elapsed >= adWindow {
		return true, 0
	}
	return false, adWindow - elapsed
}
