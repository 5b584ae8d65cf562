package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskex-lab/backend/internal/domain/settlement"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/enum"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type CampaignDomain interface {
	Create(ctx context.Context, req *model.CreateCampaignRequest) (*model.CreateCampaignResponse, error)
	Get(ctx context.Context, req *model.GetCampaignRequest) (*model.GetCampaignResponse, error)
	GetList(ctx context.Context, req *model.GetListCampaignRequest) (*model.GetListCampaignResponse, error)
	Pause(ctx context.Context, req *model.PauseCampaignRequest) (*model.PauseCampaignResponse, error)
	Resume(ctx context.Context, req *model.ResumeCampaignRequest) (*model.ResumeCampaignResponse, error)
}

type campaignDomain struct {
	campaignRepo repository.CampaignRepository
	userRepo     repository.UserRepository
	ledgerRepo   repository.LedgerRepository
}

func NewCampaignDomain(
	campaignRepo repository.CampaignRepository,
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
) CampaignDomain {
	return &campaignDomain{
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// Create funds the campaign budget from the owner's balance in the same
// transaction that creates the campaign row, with a SPEND ledger entry as the
// audit record.
func (d *campaignDomain) Create(
	ctx context.Context, req *model.CreateCampaignRequest,
) (*model.CreateCampaignResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	actionType, err := enum.ToEnum[entity.CampaignActionType](req.ActionType)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid action type %s", req.ActionType)
	}

	platform, err := enum.ToEnum[entity.CampaignPlatform](req.Platform)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid platform %s", req.Platform)
	}

	if req.RewardPoints <= 0 || req.TotalBudget < req.RewardPoints {
		return nil, errorx.New(errorx.BadRequest,
			"Budget must cover at least one reward")
	}

	if req.TargetChatID == "" {
		return nil, errorx.New(errorx.BadRequest, "Target chat is required")
	}

	if actionType == entity.ActionReaction && req.TargetMessageID == 0 {
		return nil, errorx.New(errorx.BadRequest,
			"Reaction campaigns need a target message")
	}

	campaign := &entity.Campaign{
		Base:            entity.Base{ID: uuid.NewString()},
		OwnerID:         userID,
		Platform:        platform,
		ActionType:      actionType,
		Status:          entity.CampaignActive,
		Title:           req.Title,
		TargetChatID:    req.TargetChatID,
		RewardPoints:    req.RewardPoints,
		TotalBudget:     req.TotalBudget,
		RemainingBudget: req.TotalBudget,
	}

	if actionType == entity.ActionReaction {
		campaign.TargetMessageID = sql.NullInt64{Int64: req.TargetMessageID, Valid: true}
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.userRepo.SpendBalance(ctx, userID, req.TotalBudget); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.BadRequest, "Not enough points to fund the budget")
		}

		xcontext.Logger(ctx).Errorf("Cannot spend balance: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.campaignRepo.Create(ctx, campaign); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create campaign: %v", err)
		return nil, errorx.Unknown
	}

	err = d.ledgerRepo.Create(ctx, &entity.LedgerEntry{
		UserID:     userID,
		Type:       entity.LedgerSpend,
		Amount:     -req.TotalBudget,
		Reason:     fmt.Sprintf("campaign %s funded", campaign.ID),
		CampaignID: sql.NullString{String: campaign.ID, Valid: true},
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append funding ledger entry: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.CreateCampaignResponse{ID: campaign.ID}, nil
}

func (d *campaignDomain) Get(
	ctx context.Context, req *model.GetCampaignRequest,
) (*model.GetCampaignResponse, error) {
	campaign, err := d.campaignRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found campaign")
		}

		xcontext.Logger(ctx).Errorf("Cannot get campaign: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetCampaignResponse{Campaign: convertCampaign(campaign)}

	if userID := xcontext.RequestUserID(ctx); userID != "" {
		user, err := d.userRepo.GetByID(ctx, userID)
		if err == nil {
			resp.PayoutPreview = settlement.Payout(
				xcontext.Configs(ctx).Reward, campaign.RewardPoints, user.TotalEarned)
		}
	}

	return resp, nil
}

func (d *campaignDomain) GetList(
	ctx context.Context, req *model.GetListCampaignRequest,
) (*model.GetListCampaignResponse, error) {
	campaigns, err := d.campaignRepo.GetList(ctx, repository.CampaignFilter{
		Status: entity.CampaignStatus(req.Status),
	}, req.Offset, defaultLimit(req.Limit))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list campaigns: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetListCampaignResponse{}
	for i := range campaigns {
		resp.Campaigns = append(resp.Campaigns, convertCampaign(&campaigns[i]))
	}

	return resp, nil
}

func (d *campaignDomain) Pause(
	ctx context.Context, req *model.PauseCampaignRequest,
) (*model.PauseCampaignResponse, error) {
	if err := d.transition(ctx, req.ID, entity.CampaignActive, entity.CampaignPaused); err != nil {
		return nil, err
	}

	return &model.PauseCampaignResponse{}, nil
}

func (d *campaignDomain) Resume(
	ctx context.Context, req *model.ResumeCampaignRequest,
) (*model.ResumeCampaignResponse, error) {
	if err := d.transition(ctx, req.ID, entity.CampaignPaused, entity.CampaignActive); err != nil {
		return nil, err
	}

	return &model.ResumeCampaignResponse{}, nil
}

// transition flips between active and paused. A completed campaign matches
// neither guard, so it cannot be brought back from the budget side.
func (d *campaignDomain) transition(
	ctx context.Context, id string, from, to entity.CampaignStatus,
) error {
	campaign, err := d.campaignRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found campaign")
		}

		xcontext.Logger(ctx).Errorf("Cannot get campaign: %v", err)
		return errorx.Unknown
	}

	if campaign.OwnerID != xcontext.RequestUserID(ctx) {
		return errorx.New(errorx.PermissionDenied, "Only the owner can manage the campaign")
	}

	if err := d.campaignRepo.UpdateStatus(ctx, id, from, to); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.InvalidState, "Campaign is %s, cannot become %s",
				campaign.Status, to)
		}

		xcontext.Logger(ctx).Errorf("Cannot update campaign status: %v", err)
		return errorx.Unknown
	}

	return nil
}

func convertCampaign(campaign *entity.Campaign) model.Campaign {
	result := model.Campaign{
		ID:              campaign.ID,
		OwnerID:         campaign.OwnerID,
		Platform:        string(campaign.Platform),
		ActionType:      string(campaign.ActionType),
		Status:          string(campaign.Status),
		Title:           campaign.Title,
		TargetChatID:    campaign.TargetChatID,
		RewardPoints:    campaign.RewardPoints,
		TotalBudget:     campaign.TotalBudget,
		RemainingBudget: campaign.RemainingBudget,
	}

	if campaign.TargetMessageID.Valid {
		result.TargetMessageID = campaign.TargetMessageID.Int64
	}

	return result
}
