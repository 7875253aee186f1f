package domain

import "time"

type User struct {
	ID                   int64      `db:"id"`
	TgID                 int64      `db:"tg_id"`
	Username             string     `db:"username"`
	FirstName            string     `db:"first_name"`
	XP                   int64      `db:"xp" json:"xp"`
	Gold                 int64      `db:"gold" json:"gold"`
	TicketsRemaining     int64      `db:"tickets_remaining" json:"tickets_remaining"`
	CurrentAvailableTaps int64      `db:"current_available_taps" json:"current_available_taps"`
	ReferredBy           *int64     `db:"referred_by"`
	ReferralCode         string     `db:"referral_code"`
	LimitedTime          *time.Time `db:"limited_time"`
	CurrentSeasonXP      int64      `db:"current_season_xp" json:"current_season_xp"`
	CurrentSeasonGold    int64      `db:"current_season_gold" json:"current_season_gold"`
	BonusLevelClaimed    int        `db:"bonus_level_claimed"`
	Blocked              bool       `db:"blocked"`
	CreatedAt            time.Time  `db:"created_at"`
}

// ChestOpen is one entry of the user's chest opening history. Summary marks
// a row that compaction folded older entries into.
type ChestOpen struct {
	TimeOpened time.Time `json:"time_opened"`
	XP         int64     `json:"xp"`
	Gold       int64     `json:"gold"`
	Summary    bool      `json:"summary,omitempty"`
}

// TicketSource tells which claim path produced a ticket history entry.
type TicketSource string

const (
	TicketSourceDaily TicketSource = "daily"
	TicketSourceAd    TicketSource = "ad"
)

// TicketClaim is one entry of the ticket getting history. ConstructionDays
// is only meaningful for daily claims.
type TicketClaim struct {
	ClaimedAt        time.Time    `json:"date"`
	NumberOfTickets  int64        `json:"number_of_tickets"`
	DueTo            TicketSource `json:"due_to"`
	Resetted         bool         `json:"resetted"`
	ConstructionDays int          `json:"construction_days"`
	Summary          bool         `json:"summary,omitempty"`
}

// TapDay is the per-calendar-day bucket of tap game earnings.
type TapDay struct {
	Day     time.Time `json:"date"`
	XP      int64     `json:"xp"`
	Gold    int64     `json:"gold"`
	Summary bool      `json:"summary,omitempty"`
}

// ValidReferral records a referred user that qualified (held positive gold
// at reward time). A referred user appears at most once per referrer.
type ValidReferral struct {
	ReferredID int64     `json:"referred_user_id"`
	TimeAdded  time.Time `json:"time_added"`
}

// TaskCompletion is an externally validated task reward, kept so season
// aggregation can count it.
type TaskCompletion struct {
	TaskID      int64     `json:"task_id"`
	XP          int64     `json:"xp"`
	Gold        int64     `json:"gold"`
	ValidatedAt time.Time `json:"validated_at"`
}
