package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type MembershipStatus string

const (
	Member         = MembershipStatus("MEMBER")
	NotMember      = MembershipStatus("NOT_MEMBER")
	PendingRequest = MembershipStatus("PENDING_REQUEST")
	Unavailable    = MembershipStatus("UNAVAILABLE")
)

// MembershipVerifier answers whether a platform user currently belongs to a
// chat. Implementations must report Unavailable on infra failure instead of
// returning an error, so callers can tell it apart from a real negative.
type MembershipVerifier interface {
	CheckMembership(ctx context.Context, chatID, platformUserID string) MembershipStatus
}

// RecheckResult reports the outcome of one membership recheck. NextRetryAt is
// set when the membership is still unconfirmed and the caller should come
// back after the cooldown.
type RecheckResult struct {
	Application *entity.Application
	Status      MembershipStatus
	NextRetryAt time.Time
}

// RecheckMembership drives one client-initiated verification attempt. The
// first check is never throttled; after that the cooldown applies. A member
// settles inline; a negative or pending answer consumes the check and stamps
// the cooldown window; an unavailable upstream consumes nothing so the client
// may retry right away.
func (e *Engine) RecheckMembership(
	ctx context.Context, verifier MembershipVerifier, applicationID, platformUserID string,
) (*RecheckResult, error) {
	application, err := e.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found application")
		}

		xcontext.Logger(ctx).Errorf("Cannot get application: %v", err)
		return nil, errorx.Unknown
	}

	if application.Status == entity.ApplicationApproved {
		return &RecheckResult{Application: application, Status: Member}, nil
	}

	if application.Status != entity.ApplicationPending {
		return nil, errorx.New(errorx.InvalidState,
			"Application is %s, nothing to verify", application.Status)
	}

	now := time.Now()
	cooldown := xcontext.Configs(ctx).Reward.RecheckCooldown
	if application.VerificationChecks > 0 && application.LastVerificationAt.Valid {
		nextRetryAt := application.LastVerificationAt.Time.Add(cooldown)
		if now.Before(nextRetryAt) {
			retryAfter := int64(nextRetryAt.Sub(now).Seconds()) + 1
			return nil, errorx.New(errorx.RetryCooldown, "Checked too recently").
				WithDetail("retry_after_sec", retryAfter).
				WithDetail("next_retry_at", nextRetryAt.Format(time.RFC3339))
		}
	}

	campaign, err := e.campaignRepo.GetByID(ctx, application.CampaignID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get campaign: %v", err)
		return nil, errorx.Unknown
	}

	status := verifier.CheckMembership(ctx, campaign.TargetChatID, platformUserID)
	switch status {
	case Unavailable:
		return nil, errorx.New(errorx.Unavailable, "Membership service is unavailable")

	case Member:
		settled, err := e.Settle(ctx, application.ID)
		if err != nil {
			return nil, err
		}

		return &RecheckResult{Application: settled, Status: Member}, nil

	default:
		err := e.applicationRepo.UpdateVerification(
			ctx, application.ID, application.VerificationChecks+1, now)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update verification state: %v", err)
			return nil, errorx.Unknown
		}

		return &RecheckResult{
			Application: application,
			Status:      status,
			NextRetryAt: now.Add(cooldown),
		}, nil
	}
}
