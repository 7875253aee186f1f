package progression

import (
	"catacomb_backend/internal/domain"
)

// ShouldRecordValidReferral decides whether a reward event turns the
// referred user into a valid referral of their referrer. The membership
// check (not a database constraint) is what keeps the list duplicate-free.
func ShouldRecordValidReferral(referrals []domain.ValidReferral, referredID int64, referredGold int64) bool {
	if referredGold <= 0 {
		return false
	}
	for _, r := range referrals {
		if r.ReferredID == referredID {
			return false
		}
	}
	return true
}

// ReferralReward computes the referrer's cut of a gold reward: a floored
// percentage of the gold plus a fixed XP bonus.
func ReferralReward(s domain.Settings, rewardGold int64) (gold, xp int64) {
	return s.ReferralGoldPercentage * rewardGold / 100, s.ReferralXP
}
