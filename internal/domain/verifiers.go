package domain

import (
	"context"
	"errors"

	"github.com/taskex-lab/backend/internal/domain/settlement"
	"github.com/taskex-lab/backend/pkg/api/telegram"
	"github.com/taskex-lab/backend/pkg/api/vk"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

// NewTelegramVerifier wraps the Bot API chat member lookup as a membership
// verifier.
func NewTelegramVerifier(endpoint telegram.IEndpoint) settlement.MembershipVerifier {
	return &telegramVerifier{endpoint: endpoint}
}

type telegramVerifier struct {
	endpoint telegram.IEndpoint
}

func (v *telegramVerifier) CheckMembership(
	ctx context.Context, chatID, platformUserID string,
) settlement.MembershipStatus {
	member, err := v.endpoint.GetChatMember(ctx, chatID, platformUserID)
	if err != nil {
		if errors.Is(err, telegram.ErrMemberNotFound) {
			return settlement.NotMember
		}

		xcontext.Logger(ctx).Warnf("Cannot check telegram membership: %v", err)
		return settlement.Unavailable
	}

	if member.IsMember() {
		return settlement.Member
	}

	return settlement.NotMember
}

// NewVKVerifier wraps groups.isMember as a membership verifier. A pending
// join request for a closed group is reported as such so clients can tell the
// user to wait instead of re-joining.
func NewVKVerifier(endpoint vk.IEndpoint) settlement.MembershipVerifier {
	return &vkVerifier{endpoint: endpoint}
}

type vkVerifier struct {
	endpoint vk.IEndpoint
}

func (v *vkVerifier) CheckMembership(
	ctx context.Context, chatID, platformUserID string,
) settlement.MembershipStatus {
	if platformUserID == "" {
		return settlement.Unavailable
	}

	membership, err := v.endpoint.IsGroupMember(ctx, chatID, platformUserID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot check vk membership: %v", err)
		return settlement.Unavailable
	}

	switch {
	case membership.Member:
		return settlement.Member
	case membership.Request:
		return settlement.PendingRequest
	default:
		return settlement.NotMember
	}
}
