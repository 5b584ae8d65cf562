package model

type SpinDailyBonusRequest struct{}

type SpinDailyBonusResponse struct {
	Points     int64  `json:"points"`
	NextSpinAt string `json:"next_spin_at"`
}
