package settlement

import (
	"context"
	"time"

	"github.com/pkg/math"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

// ReconcileReactions matches a fresh aggregate reaction count against the
// campaign's pending applications and settles the best-guess candidates. The
// external counter never says who reacted, so the reconciler hands out at most
// delta slots, bounded by the remaining budget, to the most plausible
// claimants. Replaying the same count yields delta zero and settles nothing.
// It returns the approved applications.
func (e *Engine) ReconcileReactions(
	ctx context.Context, campaignID string, totalCount int64,
) ([]entity.Application, error) {
	unlock := e.lockCampaign(campaignID)
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	campaign, err := e.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get campaign: %v", err)
		return nil, errorx.Unknown
	}

	lastCount := totalCount - 1
	if campaign.ReactionCount.Valid {
		lastCount = campaign.ReactionCount.Int64
	}

	// The watermark always advances to the observed total, even when nothing
	// can be settled, so a replay of the same value becomes a no-op.
	if err := e.campaignRepo.SetReactionCount(ctx, campaign.ID, totalCount); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update reaction watermark: %v", err)
		return nil, errorx.Unknown
	}

	delta := totalCount - lastCount
	if delta <= 0 || campaign.Status != entity.CampaignActive {
		xcontext.WithCommitDBTransaction(ctx)
		return nil, nil
	}

	maxByBudget := campaign.RemainingBudget / campaign.RewardPoints
	if maxByBudget == 0 {
		xcontext.WithCommitDBTransaction(ctx)
		return nil, nil
	}

	maxApprove := math.MinInt64(delta, maxByBudget)

	candidates, err := e.selectCandidates(ctx, campaign, totalCount, int(maxApprove))
	if err != nil {
		return nil, err
	}

	approved := []entity.Application{}
	payouts := map[string]int64{}
	for _, candidate := range candidates {
		applicant, err := e.userRepo.GetByID(ctx, candidate.ApplicantID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get candidate applicant: %v", err)
			return nil, errorx.Unknown
		}

		// Blocked users lose the slot silently, the next candidate takes it.
		if state := ResolveBlockState(applicant, time.Now()); state.Blocked {
			continue
		}

		if err := e.applicationRepo.ApproveByID(ctx, candidate.ID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot approve candidate: %v", err)
			return nil, errorx.Unknown
		}

		if err := e.campaignRepo.DecreaseBudget(ctx, campaign.ID, campaign.RewardPoints); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot decrease campaign budget: %v", err)
			return nil, errorx.Unknown
		}

		payout, err := e.payApplicant(ctx, applicant, campaign)
		if err != nil {
			return nil, err
		}
		payouts[applicant.ID] += payout

		if err := e.progressReferral(ctx, applicant.ID, 1); err != nil {
			return nil, err
		}

		candidate.Status = entity.ApplicationApproved
		approved = append(approved, candidate)
		if len(approved) == int(maxApprove) {
			break
		}
	}

	xcontext.WithCommitDBTransaction(ctx)

	for userID, payout := range payouts {
		e.bumpLeaderboard(ctx, userID, payout)
	}

	return approved, nil
}

// selectCandidates picks up to limit pending applications. Known-baseline
// claims below the observed total come first, newest baseline first, then
// unknown-baseline claims by recency. The ordering is a fairness policy, not
// a guarantee of attribution.
func (e *Engine) selectCandidates(
	ctx context.Context, campaign *entity.Campaign, totalCount int64, limit int,
) ([]entity.Application, error) {
	// Over-fetch so blocked candidates skipped later still leave enough.
	fetch := limit * 2

	candidates := []entity.Application{}
	if xcontext.Configs(ctx).Reward.PreferKnownBaseline {
		known, err := e.applicationRepo.GetPendingWithBaseline(ctx, campaign.ID, fetch)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot list baseline candidates: %v", err)
			return nil, errorx.Unknown
		}

		for _, application := range known {
			if application.ReactionBaseline.Int64 < totalCount {
				candidates = append(candidates, application)
			}
		}
	}

	unknown, err := e.applicationRepo.GetPendingWithoutBaseline(ctx, campaign.ID, fetch)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list fallback candidates: %v", err)
		return nil, errorx.Unknown
	}

	return append(candidates, unknown...), nil
}
