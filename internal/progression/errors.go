package progression

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyClaimed means the claim window has not elapsed yet.
	ErrAlreadyClaimed = errors.New("already claimed")
	// ErrNoTickets means the user has no tickets to convert.
	ErrNoTickets = errors.New("not enough tickets")
	// ErrNoTaps means the user has no tap energy left.
	ErrNoTaps = errors.New("no available taps")
	// ErrInvalidTapCount rejects non-positive tap counts.
	ErrInvalidTapCount = errors.New("tap count must be a positive integer")
	// ErrEmptyCatalog means the level table has not been loaded.
	ErrEmptyCatalog = errors.New("level catalog is empty")
	// ErrTapLevelNotFound means no tap level matches the user's level.
	ErrTapLevelNotFound = errors.New("tap level not found for user level")
)

// AlreadyClaimedError is an ErrAlreadyClaimed that carries the remaining
// wait until the claim window reopens.
type AlreadyClaimedError struct {
	Remaining time.Duration
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("already claimed, wait %s", e.Remaining)
}

// Is makes errors.Is(err, ErrAlreadyClaimed) match.
func (e *AlreadyClaimedError) Is(target error) bool {
	return target == ErrAlreadyClaimed
}

// CooldownActiveError is returned when the per-chest cooldown has not
// elapsed. Informational, carries the remaining wait.
type CooldownActiveError struct {
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("chest opening is not available yet, wait %s", e.Remaining)
}

// DailyLimitError is returned when the daily chest limit blocks the open.
// JustStarted is set when this attempt is the one that triggered the
// 24h hard block, so the caller must persist the block anchor.
type DailyLimitError struct {
	Remaining   time.Duration
	JustStarted bool
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily limit reached, wait %s", e.Remaining)
}
