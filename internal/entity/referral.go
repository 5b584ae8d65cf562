package entity

import "github.com/taskex-lab/backend/pkg/enum"

// Referral links a referred user to their referrer. A user is referred at
// most once, ever.
type Referral struct {
	Base

	ReferrerID string `gorm:"index"`
	Referrer   User   `gorm:"foreignKey:ReferrerID"`

	ReferredUserID string `gorm:"unique"`
	ReferredUser   User   `gorm:"foreignKey:ReferredUserID"`

	// CompletedOrders counts the referred user's settled tasks net of
	// reversals, floored at zero.
	CompletedOrders int64
}

type ReferralRewardSide string

var (
	SideReferrer = enum.New(ReferralRewardSide("referrer"))
	SideReferred = enum.New(ReferralRewardSide("referred"))
)

// ReferralReward records one milestone grant. The composite uniqueness of
// (referral, side, milestone) is what makes milestone grants idempotent.
type ReferralReward struct {
	Base

	ReferralID string             `gorm:"uniqueIndex:idx_referral_rewards_referral_side_milestone"`
	Side       ReferralRewardSide `gorm:"uniqueIndex:idx_referral_rewards_referral_side_milestone"`
	Milestone  string             `gorm:"uniqueIndex:idx_referral_rewards_referral_side_milestone"`

	Points int64
}
