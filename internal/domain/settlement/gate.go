package settlement

import (
	"time"

	"github.com/taskex-lab/backend/internal/entity"
)

// BlockState is the moderation verdict for one user at one instant.
type BlockState struct {
	Blocked bool
	Reason  string
	Until   time.Time
}

// ResolveBlockState projects the stored moderation fields into an effective
// verdict. A temporary block expires by itself once BlockedUntil has passed,
// without anyone flipping the flag back.
func ResolveBlockState(user *entity.User, now time.Time) BlockState {
	if !user.IsBlocked {
		return BlockState{}
	}

	if user.BlockedUntil.Valid && now.After(user.BlockedUntil.Time) {
		return BlockState{}
	}

	state := BlockState{Blocked: true, Reason: user.BlockReason}
	if user.BlockedUntil.Valid {
		state.Until = user.BlockedUntil.Time
	}

	return state
}
