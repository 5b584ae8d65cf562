package model

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Balance      int64  `json:"balance"`
	TotalEarned  int64  `json:"total_earned"`
	Rank         string `json:"rank"`
	ReferralCode string `json:"referral_code"`
	IsBlocked    bool   `json:"is_blocked"`
}

type GetMeRequest struct{}

type GetMeResponse User

type BlockUserRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`

	// Until is RFC3339. Empty means an indefinite block.
	Until string `json:"until"`
}

type BlockUserResponse struct{}

type LinkVKRequest struct {
	VKID string `json:"vk_id"`
}

type LinkVKResponse struct{}

type UnblockUserRequest struct {
	UserID string `json:"user_id"`
}

type UnblockUserResponse struct{}
