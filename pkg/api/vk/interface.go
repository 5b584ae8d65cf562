package vk

import "context"

type IEndpoint interface {
	IsGroupMember(ctx context.Context, groupID, userID string) (Membership, error)
}

// Membership is the answer of groups.isMember with extended fields. A user
// with a pending join request is not a member yet but should not be treated
// as a refusal either.
type Membership struct {
	Member  bool
	Request bool
}
