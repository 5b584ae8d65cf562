package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pkg/math"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// RevokeAndPenalize is the compensating transaction for a lost membership.
// It flips the approved application to revoked, claws back up to what the
// user actually earned for that campaign, and walks the referral counter one
// step back. The penalty is clamped so balance and total earned never go
// negative, and never exceeds the last paid-out amount.
func (e *Engine) RevokeAndPenalize(ctx context.Context, applicationID string) error {
	application, err := e.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found application")
		}

		xcontext.Logger(ctx).Errorf("Cannot get application: %v", err)
		return errorx.Unknown
	}

	unlock := e.lockCampaign(application.CampaignID)
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := e.applicationRepo.MarkRevoked(ctx, applicationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Not approved anymore, someone else already handled it.
			xcontext.WithCommitDBTransaction(ctx)
			return nil
		}

		xcontext.Logger(ctx).Errorf("Cannot revoke application: %v", err)
		return errorx.Unknown
	}

	user, err := e.userRepo.GetByID(ctx, application.ApplicantID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return errorx.Unknown
	}

	lastEarn, err := e.ledgerRepo.GetLastEarnByUserAndCampaign(
		ctx, application.ApplicantID, application.CampaignID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get last earn entry: %v", err)
		return errorx.Unknown
	}

	var lastEarned int64
	if lastEarn != nil {
		lastEarned = lastEarn.Amount
		if lastEarned < 0 {
			lastEarned = -lastEarned
		}
	}

	multiplier := xcontext.Configs(ctx).Reward.PenaltyMultiplier
	penalty := math.MinInt64(
		int64(float64(lastEarned)*multiplier),
		math.MinInt64(user.Balance, user.TotalEarned),
	)

	if penalty > 0 {
		if err := e.userRepo.ApplyPenalty(ctx, user.ID, penalty); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot apply penalty: %v", err)
			return errorx.Unknown
		}

		err = e.ledgerRepo.Create(ctx, &entity.LedgerEntry{
			UserID:     user.ID,
			Type:       entity.LedgerAdjust,
			Amount:     -penalty,
			Reason:     fmt.Sprintf("campaign %s membership revoked", application.CampaignID),
			CampaignID: sql.NullString{String: application.CampaignID, Valid: true},
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot append penalty ledger entry: %v", err)
			return errorx.Unknown
		}
	}

	if err := e.progressReferral(ctx, user.ID, -1); err != nil {
		return err
	}

	xcontext.WithCommitDBTransaction(ctx)
	return nil
}
