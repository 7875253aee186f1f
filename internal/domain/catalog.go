package domain

// Level is one row of the externally managed level table.
type Level struct {
	Level                      int   `json:"level"`
	XPRequired                 int64 `json:"xp_required"`
	SecondsForNextChestOpening int64 `json:"seconds_for_next_chest_opening"`
	OneTimeBonusRewards        int64 `json:"one_time_bonus_rewards"`
}

// TapGameLevel maps a set of user levels to tap game multipliers.
type TapGameLevel struct {
	TapLevel           int     `json:"tap_level"`
	RequiredUserLevels []int   `json:"required_user_levels"`
	XPEarningPerTap    int64   `json:"xp_earning_per_tap"`
	GoldEarningPerTap  int64   `json:"gold_earning_per_tap"`
	TapLimitPerTicket  int64   `json:"tap_limit_per_ticket"`
}

// Settings is the process-wide reward configuration singleton.
type Settings struct {
	OpeningChestGolds       []int64 `json:"opening_chest_golds"`
	OpeningChestXP          int64   `json:"opening_chest_xp"`
	ReferralGoldPercentage  int64   `json:"referral_gold_percentage"`
	ReferralXP              int64   `json:"referral_xp"`
	DailyOpeningChestsLimit int     `json:"daily_opening_chests_limit"`
	ConstructionBonusXP     int64   `json:"construction_bonus_xp"`
}
