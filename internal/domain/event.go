package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reward event kinds.
const (
	RewardChestOpen    = "chest_open"
	RewardDailyTickets = "daily_tickets"
	RewardAdTickets    = "ad_tickets"
	RewardTap          = "tap"
	RewardReferral     = "referral"
	RewardLevelBonus   = "level_bonus"
	RewardTask         = "task"
	RewardAdminGrant   = "admin_grant"
)

// RewardEvent is one audit row of XP/Gold granted to a user.
type RewardEvent struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"user_id"`
	Kind      string    `json:"kind"`
	XP        int64     `json:"xp"`
	Gold      int64     `json:"gold"`
	CreatedAt time.Time `json:"created_at"`
}
