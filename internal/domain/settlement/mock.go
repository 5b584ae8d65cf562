package settlement

import "context"

// MockMembershipVerifier answers membership checks from a canned table keyed
// by "chatID/platformUserID". Unknown pairs are not members.
type MockMembershipVerifier struct {
	Statuses map[string]MembershipStatus
	Calls    int
}

func (m *MockMembershipVerifier) CheckMembership(
	ctx context.Context, chatID, platformUserID string,
) MembershipStatus {
	m.Calls++
	if status, ok := m.Statuses[chatID+"/"+platformUserID]; ok {
		return status
	}

	return NotMember
}
