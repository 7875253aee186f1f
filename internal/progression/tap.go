package progression

import (
	"catacomb_backend/internal/domain"
)

// ConvertResult is the outcome of exchanging a ticket for tap energy.
// Consumed is false when the user still has taps left, in which case no
// ticket was spent.
type ConvertResult struct {
	Consumed      bool  `json:"consumed"`
	AvailableTaps int64 `json:"current_available_taps"`
}

// ConvertTicket exchanges one ticket for the tap allowance of the user's
// tap level. A conversion while taps remain is a no-op report, not an error.
func ConvertTicket(ticketsRemaining, availableTaps int64, tapLevel domain.TapGameLevel) (ConvertResult, error) {
	if ticketsRemaining < 1 {
		return ConvertResult{}, ErrNoTickets
	}
	if availableTaps > 0 {
		return ConvertResult{Consumed: false, AvailableTaps: availableTaps}, nil
	}
	return ConvertResult{Consumed: true, AvailableTaps: tapLevel.TapLimitPerTicket}, nil
}

// TapScore is the split result of a tap batch.
type TapScore struct {
	XPUnits   int64 `json:"xp_units"`
	GoldUnits int64 `json:"gold_units"`
	XP        int64 `json:"xp"`
	Gold      int64 `json:"gold"`
	// Spent is how much tap energy the batch consumed. It is clamped to
	// the energy the user actually had, so energy never goes negative.
	Spent int64 `json:"spent"`
}

// ScoreTaps converts a tap count into split XP/Gold earnings. The count is
// split evenly; an odd remainder goes to gold when the pre-decrement tap
// energy is odd, to XP otherwise. Counts above the remaining energy are
// clamped down to it before scoring.
func ScoreTaps(count, availableTaps int64, tapLevel domain.TapGameLevel) (TapScore, error) {
	if count < 1 {
		return TapScore{}, ErrInvalidTapCount
	}
	if availableTaps < 1 {
		return TapScore{}, ErrNoTaps
	}

	effective := count
	if effective > availableTaps {
		effective = availableTaps
	}

	xpUnits := effective / 2
	goldUnits := effective / 2
	if effective%2 == 1 {
		if availableTaps%2 == 1 {
			goldUnits++
		} else {
			xpUnits++
		}
	}

	return TapScore{
		XPUnits:   xpUnits,
		GoldUnits: goldUnits,
		XP:        xpUnits * tapLevel.XPEarningPerTap,
		Gold:      goldUnits * tapLevel.GoldEarningPerTap,
		Spent:     effective,
	}, nil
}
