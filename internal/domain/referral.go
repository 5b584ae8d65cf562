package domain

import (
	"context"
	"errors"

	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ReferralDomain interface {
	GetMyReferrals(ctx context.Context, req *model.GetMyReferralsRequest) (*model.GetMyReferralsResponse, error)
}

type referralDomain struct {
	userRepo     repository.UserRepository
	referralRepo repository.ReferralRepository
}

func NewReferralDomain(
	userRepo repository.UserRepository,
	referralRepo repository.ReferralRepository,
) ReferralDomain {
	return &referralDomain{userRepo: userRepo, referralRepo: referralRepo}
}

func (d *referralDomain) GetMyReferrals(
	ctx context.Context, req *model.GetMyReferralsRequest,
) (*model.GetMyReferralsResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	referrals, err := d.referralRepo.GetByReferrer(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list referrals: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetMyReferralsResponse{
		ReferralCode: user.ReferralCode,
		Invited:      len(referrals),
	}

	for _, referral := range referrals {
		rewards, err := d.referralRepo.GetRewardsByReferral(ctx, referral.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot list referral rewards: %v", err)
			return nil, errorx.Unknown
		}

		for _, reward := range rewards {
			resp.Rewards = append(resp.Rewards, model.ReferralReward{
				Milestone: reward.Milestone,
				Side:      string(reward.Side),
				Points:    reward.Points,
			})
		}
	}

	return resp, nil
}
