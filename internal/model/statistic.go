package model

type LeaderboardRecord struct {
	UserID string `json:"user_id"`
	Earned int64  `json:"earned"`
}

type GetLeaderboardRequest struct {
	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetLeaderboardResponse struct {
	Records []LeaderboardRecord `json:"records"`
}

type GetMyRankRequest struct{}

type GetMyRankResponse struct {
	// Position is one-based. Ranked is false for users who have not earned
	// anything yet.
	Position int64 `json:"position"`
	Ranked   bool  `json:"ranked"`
}
