package model

// Webhook payloads arrive already parsed and authenticated by the transport
// layer.

type ChatMemberEventRequest struct {
	Platform string `json:"platform"`
	ChatID   string `json:"chat_id"`

	// PlatformUserID is the platform-side identity of the member, not an
	// internal user id.
	PlatformUserID string `json:"platform_user_id"`

	// Joined is true on a join event and false on a leave event.
	Joined bool `json:"joined"`
}

type ChatMemberEventResponse struct {
	Settled int `json:"settled"`
	Revoked int `json:"revoked"`
}

type ReactionCountEventRequest struct {
	Platform   string `json:"platform"`
	ChatID     string `json:"chat_id"`
	MessageID  int64  `json:"message_id"`
	TotalCount int64  `json:"total_count"`
}

type ReactionCountEventResponse struct {
	Approved int `json:"approved"`
}
