package telegram

import "context"

type IEndpoint interface {
	GetChatMember(ctx context.Context, chatID, userID string) (ChatMember, error)
}

// ChatMember mirrors the member object of the Bot API. Status is one of
// creator, administrator, member, restricted, left, kicked.
type ChatMember struct {
	UserID string
	Status string
}

func (m ChatMember) IsMember() bool {
	switch m.Status {
	case "creator", "administrator", "member", "restricted":
		return true
	}

	return false
}
