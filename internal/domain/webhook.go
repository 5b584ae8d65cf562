package domain

import (
	"context"
	"errors"

	"github.com/taskex-lab/backend/internal/domain/settlement"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/enum"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// WebhookDomain turns already-authenticated platform events into settlements
// and penalties. VK campaigns are confirmed by client-driven rechecks, so
// chat member events are accepted for telegram only.
type WebhookDomain interface {
	ChatMemberEvent(ctx context.Context, req *model.ChatMemberEventRequest) (*model.ChatMemberEventResponse, error)
	ReactionCountEvent(ctx context.Context, req *model.ReactionCountEventRequest) (*model.ReactionCountEventResponse, error)
}

type webhookDomain struct {
	userRepo        repository.UserRepository
	campaignRepo    repository.CampaignRepository
	applicationRepo repository.ApplicationRepository
	engine          *settlement.Engine
}

func NewWebhookDomain(
	userRepo repository.UserRepository,
	campaignRepo repository.CampaignRepository,
	applicationRepo repository.ApplicationRepository,
	engine *settlement.Engine,
) WebhookDomain {
	return &webhookDomain{
		userRepo:        userRepo,
		campaignRepo:    campaignRepo,
		applicationRepo: applicationRepo,
		engine:          engine,
	}
}

func (d *webhookDomain) ChatMemberEvent(
	ctx context.Context, req *model.ChatMemberEventRequest,
) (*model.ChatMemberEventResponse, error) {
	if req.Platform != string(entity.PlatformTelegram) {
		return nil, errorx.New(errorx.BadRequest, "Unsupported platform %s", req.Platform)
	}

	user, err := d.userRepo.GetByTelegramID(ctx, req.PlatformUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Not everyone in the chat has an account here.
			return &model.ChatMemberEventResponse{}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	if req.Joined {
		return d.settleJoin(ctx, user.ID, req.ChatID)
	}

	return d.revokeLeave(ctx, user.ID, req.ChatID)
}

func (d *webhookDomain) settleJoin(
	ctx context.Context, userID, chatID string,
) (*model.ChatMemberEventResponse, error) {
	pending, err := d.applicationRepo.GetByApplicantChatAndStatus(
		ctx, userID, entity.PlatformTelegram, chatID, entity.ApplicationPending)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list pending applications: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.ChatMemberEventResponse{}
	for _, application := range pending {
		if _, err := d.engine.Settle(ctx, application.ID); err != nil {
			var errx errorx.Error
			if errors.As(err, &errx) && errx.Code != errorx.Unknown.Code {
				// Business guards (paused, exhausted, blocked) leave the
				// application for a later trigger.
				xcontext.Logger(ctx).Infof(
					"Skip settlement of %s: %s", application.ID, errx.Message)
				continue
			}

			return nil, err
		}

		resp.Settled++
	}

	return resp, nil
}

func (d *webhookDomain) revokeLeave(
	ctx context.Context, userID, chatID string,
) (*model.ChatMemberEventResponse, error) {
	approved, err := d.applicationRepo.GetByApplicantChatAndStatus(
		ctx, userID, entity.PlatformTelegram, chatID, entity.ApplicationApproved)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list approved applications: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.ChatMemberEventResponse{}
	for _, application := range approved {
		if err := d.engine.RevokeAndPenalize(ctx, application.ID); err != nil {
			return nil, err
		}

		resp.Revoked++
	}

	return resp, nil
}

func (d *webhookDomain) ReactionCountEvent(
	ctx context.Context, req *model.ReactionCountEventRequest,
) (*model.ReactionCountEventResponse, error) {
	platform, err := enum.ToEnum[entity.CampaignPlatform](req.Platform)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Unsupported platform %s", req.Platform)
	}

	campaigns, err := d.campaignRepo.GetByTargetMessage(ctx, platform, req.ChatID, req.MessageID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot find reaction campaigns: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.ReactionCountEventResponse{}
	for _, campaign := range campaigns {
		approved, err := d.engine.ReconcileReactions(ctx, campaign.ID, req.TotalCount)
		if err != nil {
			return nil, err
		}

		resp.Approved += len(approved)
	}

	return resp, nil
}
