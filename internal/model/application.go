package model

type Application struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`
	UserID     string `json:"user_id"`
	Status     string `json:"status"`
	ReviewedAt string `json:"reviewed_at,omitempty"`
}

type ApplyRequest struct {
	CampaignID string `json:"campaign_id"`
}

type ApplyResponse struct {
	ID string `json:"id"`

	// Status is the application status after the apply: approved when the
	// membership was confirmed synchronously, otherwise pending.
	Status string `json:"status"`
	Payout int64  `json:"payout,omitempty"`
}

type RecheckApplicationRequest struct {
	ID string `json:"id"`
}

type RecheckApplicationResponse struct {
	Status string `json:"status"`
	Payout int64  `json:"payout,omitempty"`

	// NextRetryAt is set when the membership is still unconfirmed; it is the
	// earliest moment the next recheck will not be throttled.
	NextRetryAt string `json:"next_retry_at,omitempty"`
}

type RejectApplicationRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type RejectApplicationResponse struct {
	Status string `json:"status"`
}

type GetMyApplicationsRequest struct {
	Status string `json:"status" form:"status"`
	Offset int    `json:"offset" form:"offset"`
	Limit  int    `json:"limit" form:"limit"`
}

type GetMyApplicationsResponse struct {
	Applications []Application `json:"applications"`
}
