package model

type LedgerEntry struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Amount     int64  `json:"amount"`
	Reason     string `json:"reason"`
	CampaignID string `json:"campaign_id,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type GetMyLedgerRequest struct {
	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetMyLedgerResponse struct {
	Balance int64         `json:"balance"`
	Entries []LedgerEntry `json:"entries"`
}
