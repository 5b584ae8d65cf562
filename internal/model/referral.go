package model

type ReferralReward struct {
	Milestone string `json:"milestone"`
	Side      string `json:"side"`
	Points    int64  `json:"points"`
}

type GetMyReferralsRequest struct{}

type GetMyReferralsResponse struct {
	ReferralCode string           `json:"referral_code"`
	Invited      int              `json:"invited"`
	Rewards      []ReferralReward `json:"rewards"`
}
