package model

type Campaign struct {
	ID              string `json:"id"`
	OwnerID         string `json:"owner_id"`
	Platform        string `json:"platform"`
	ActionType      string `json:"action_type"`
	Status          string `json:"status"`
	Title           string `json:"title"`
	TargetChatID    string `json:"target_chat_id"`
	TargetMessageID int64  `json:"target_message_id,omitempty"`
	RewardPoints    int64  `json:"reward_points"`
	TotalBudget     int64  `json:"total_budget"`
	RemainingBudget int64  `json:"remaining_budget"`
}

type CreateCampaignRequest struct {
	Platform        string `json:"platform"`
	ActionType      string `json:"action_type"`
	Title           string `json:"title"`
	TargetChatID    string `json:"target_chat_id"`
	TargetMessageID int64  `json:"target_message_id"`
	RewardPoints    int64  `json:"reward_points"`
	TotalBudget     int64  `json:"total_budget"`
}

type CreateCampaignResponse struct {
	ID string `json:"id"`
}

type GetCampaignRequest struct {
	ID string `json:"id" form:"id"`
}

type GetCampaignResponse struct {
	Campaign

	// PayoutPreview is the payout the requesting user would receive at their
	// current rank.
	PayoutPreview int64 `json:"payout_preview"`
}

type GetListCampaignRequest struct {
	Status string `json:"status" form:"status"`
	Offset int    `json:"offset" form:"offset"`
	Limit  int    `json:"limit" form:"limit"`
}

type GetListCampaignResponse struct {
	Campaigns []Campaign `json:"campaigns"`
}

type PauseCampaignRequest struct {
	ID string `json:"id"`
}

type PauseCampaignResponse struct{}

type ResumeCampaignRequest struct {
	ID string `json:"id"`
}

type ResumeCampaignResponse struct{}
