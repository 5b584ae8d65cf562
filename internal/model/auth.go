package model

type AccessToken struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LoginRequest struct {
	InitData     string `json:"init_data"`
	ReferralCode string `json:"referral_code"`
}

type LoginResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}
