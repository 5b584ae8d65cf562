package settlement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// progressReferral moves the referred user's completed order counter and, on
// an increase, grants every milestone the new count has reached. A user with
// no referral link is a no-op. Runs inside the caller's transaction.
func (e *Engine) progressReferral(ctx context.Context, userID string, delta int) error {
	referral, err := e.referralRepo.GetByReferredUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get referral: %v", err)
		return errorx.Unknown
	}

	if err := e.referralRepo.AddProgress(ctx, referral.ID, delta); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Already at the floor, a decrease below zero is dropped.
			return nil
		}

		xcontext.Logger(ctx).Errorf("Cannot update referral progress: %v", err)
		return errorx.Unknown
	}

	if delta <= 0 {
		// Milestones are never de-granted.
		return nil
	}

	orders := referral.CompletedOrders + int64(delta)
	for _, milestone := range xcontext.Configs(ctx).Reward.ReferralMilestones {
		if milestone.Orders == 0 || milestone.Orders > orders {
			continue
		}

		if err := e.GrantMilestone(ctx, referral, milestone.Key); err != nil {
			return err
		}
	}

	return nil
}

// GrantMilestone pays one milestone bonus to both sides of a referral link.
// The unique reward row per (referral, side, milestone) makes a repeated
// grant a no-op, so callers never need to check first.
func (e *Engine) GrantMilestone(
	ctx context.Context, referral *entity.Referral, milestoneKey string,
) error {
	for _, m := range xcontext.Configs(ctx).Reward.ReferralMilestones {
		if m.Key == milestoneKey {
			if err := e.grantMilestoneSide(ctx, referral, m.Key,
				entity.SideReferrer, referral.ReferrerID, m.ReferrerPoints); err != nil {
				return err
			}

			return e.grantMilestoneSide(ctx, referral, m.Key,
				entity.SideReferred, referral.ReferredUserID, m.ReferredPoints)
		}
	}

	return nil
}

func (e *Engine) grantMilestoneSide(
	ctx context.Context,
	referral *entity.Referral,
	milestoneKey string,
	side entity.ReferralRewardSide,
	userID string,
	points int64,
) error {
	if points <= 0 {
		return nil
	}

	inserted, err := e.referralRepo.CreateReward(ctx, &entity.ReferralReward{
		Base:       entity.Base{ID: uuid.NewString()},
		ReferralID: referral.ID,
		Side:       side,
		Milestone:  milestoneKey,
		Points:     points,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record referral reward: %v", err)
		return errorx.Unknown
	}

	if !inserted {
		return nil
	}

	if err := e.userRepo.ApplyPayout(ctx, userID, points); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot credit referral reward: %v", err)
		return errorx.Unknown
	}

	err = e.ledgerRepo.Create(ctx, &entity.LedgerEntry{
		UserID: userID,
		Type:   entity.LedgerEarn,
		Amount: points,
		Reason: "referral milestone " + milestoneKey,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append referral ledger entry: %v", err)
		return errorx.Unknown
	}

	return nil
}
