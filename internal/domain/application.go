package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taskex-lab/backend/internal/domain/settlement"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ApplicationDomain interface {
	Apply(ctx context.Context, req *model.ApplyRequest) (*model.ApplyResponse, error)
	Recheck(ctx context.Context, req *model.RecheckApplicationRequest) (*model.RecheckApplicationResponse, error)
	Reject(ctx context.Context, req *model.RejectApplicationRequest) (*model.RejectApplicationResponse, error)
	GetMyApplications(ctx context.Context, req *model.GetMyApplicationsRequest) (*model.GetMyApplicationsResponse, error)
}

type applicationDomain struct {
	applicationRepo  repository.ApplicationRepository
	campaignRepo     repository.CampaignRepository
	userRepo         repository.UserRepository
	ledgerRepo       repository.LedgerRepository
	engine           *settlement.Engine
	telegramVerifier settlement.MembershipVerifier
	vkVerifier       settlement.MembershipVerifier
}

func NewApplicationDomain(
	applicationRepo repository.ApplicationRepository,
	campaignRepo repository.CampaignRepository,
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	engine *settlement.Engine,
	telegramVerifier settlement.MembershipVerifier,
	vkVerifier settlement.MembershipVerifier,
) ApplicationDomain {
	return &applicationDomain{
		applicationRepo:  applicationRepo,
		campaignRepo:     campaignRepo,
		userRepo:         userRepo,
		ledgerRepo:       ledgerRepo,
		engine:           engine,
		telegramVerifier: telegramVerifier,
		vkVerifier:       vkVerifier,
	}
}

func (d *applicationDomain) Apply(
	ctx context.Context, req *model.ApplyRequest,
) (*model.ApplyResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	campaign, err := d.campaignRepo.GetByID(ctx, req.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found campaign")
		}

		xcontext.Logger(ctx).Errorf("Cannot get campaign: %v", err)
		return nil, errorx.Unknown
	}

	if campaign.OwnerID == userID {
		return nil, errorx.New(errorx.PermissionDenied, "Cannot apply to your own campaign")
	}

	if campaign.Status != entity.CampaignActive ||
		campaign.RemainingBudget < campaign.RewardPoints {
		return nil, errorx.New(errorx.InvalidState, "Campaign is not accepting applications")
	}

	application, err := d.applicationRepo.Get(ctx, campaign.ID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get application: %v", err)
		return nil, errorx.Unknown
	}

	if application != nil {
		switch application.Status {
		case entity.ApplicationRejected:
			return nil, errorx.New(errorx.AlreadyRejected, "Rejected applications cannot re-apply")

		case entity.ApplicationApproved:
			return &model.ApplyResponse{
				ID:     application.ID,
				Status: string(application.Status),
			}, nil

		case entity.ApplicationRevoked:
			// A re-apply after a revocation starts over, with a fresh
			// baseline for reaction campaigns.
			var baseline = application.ReactionBaseline
			if campaign.ActionType == entity.ActionReaction {
				baseline = campaign.ReactionCount
			}

			if err := d.applicationRepo.ResetToPending(ctx, application.ID, baseline); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot reset application: %v", err)
				return nil, errorx.Unknown
			}

			application.Status = entity.ApplicationPending
		}
	} else {
		application = &entity.Application{
			Base:        entity.Base{ID: uuid.NewString()},
			CampaignID:  campaign.ID,
			ApplicantID: userID,
			Status:      entity.ApplicationPending,
		}

		if campaign.ActionType == entity.ActionReaction {
			application.ReactionBaseline = campaign.ReactionCount
		}

		if err := d.applicationRepo.Create(ctx, application); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create application: %v", err)
			return nil, errorx.Unknown
		}
	}

	// Reaction campaigns settle only through the reconciler.
	if campaign.ActionType == entity.ActionReaction {
		return &model.ApplyResponse{
			ID:     application.ID,
			Status: string(entity.ApplicationPending),
		}, nil
	}

	status := d.checkMembership(ctx, campaign, userID)
	if status != settlement.Member {
		return &model.ApplyResponse{
			ID:     application.ID,
			Status: string(entity.ApplicationPending),
		}, nil
	}

	settled, err := d.engine.Settle(ctx, application.ID)
	if err != nil {
		return nil, err
	}

	return &model.ApplyResponse{
		ID:     settled.ID,
		Status: string(settled.Status),
		Payout: d.lastPayout(ctx, userID, campaign.ID),
	}, nil
}

func (d *applicationDomain) Recheck(
	ctx context.Context, req *model.RecheckApplicationRequest,
) (*model.RecheckApplicationResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	application, err := d.applicationRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found application")
		}

		xcontext.Logger(ctx).Errorf("Cannot get application: %v", err)
		return nil, errorx.Unknown
	}

	if application.ApplicantID != userID {
		return nil, errorx.New(errorx.PermissionDenied, "Not your application")
	}

	campaign, err := d.campaignRepo.GetByID(ctx, application.CampaignID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get campaign: %v", err)
		return nil, errorx.Unknown
	}

	if campaign.ActionType != entity.ActionSubscribe {
		return nil, errorx.New(errorx.BadRequest, "Only subscribe tasks can be rechecked")
	}

	verifier, platformUserID, err := d.verifierFor(ctx, campaign, userID)
	if err != nil {
		return nil, err
	}

	result, err := d.engine.RecheckMembership(ctx, verifier, application.ID, platformUserID)
	if err != nil {
		return nil, err
	}

	resp := &model.RecheckApplicationResponse{
		Status: string(result.Application.Status),
	}

	if result.Status == settlement.Member {
		resp.Payout = d.lastPayout(ctx, userID, campaign.ID)
	}

	if !result.NextRetryAt.IsZero() {
		resp.NextRetryAt = result.NextRetryAt.Format(time.RFC3339)
	}

	return resp, nil
}

// Reject is a moderation decision and only admins may take it. Rejection is
// final: a rejected applicant can never re-apply to the campaign.
func (d *applicationDomain) Reject(
	ctx context.Context, req *model.RejectApplicationRequest,
) (*model.RejectApplicationResponse, error) {
	admin, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get requesting user: %v", err)
		return nil, errorx.Unknown
	}

	if admin.Role != entity.RoleAdmin {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	application, err := d.applicationRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found application")
		}

		xcontext.Logger(ctx).Errorf("Cannot get application: %v", err)
		return nil, errorx.Unknown
	}

	if application.Status != entity.ApplicationPending {
		return nil, errorx.New(errorx.InvalidState, "Only pending applications can be rejected")
	}

	if err := d.applicationRepo.MarkRejected(ctx, application.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Settled while we were looking at it.
			return nil, errorx.New(errorx.InvalidState, "Only pending applications can be rejected")
		}

		xcontext.Logger(ctx).Errorf("Cannot reject application: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.Logger(ctx).Infof("Application %s rejected by %s: %s",
		application.ID, admin.ID, req.Reason)

	return &model.RejectApplicationResponse{
		Status: string(entity.ApplicationRejected),
	}, nil
}

func (d *applicationDomain) GetMyApplications(
	ctx context.Context, req *model.GetMyApplicationsRequest,
) (*model.GetMyApplicationsResponse, error) {
	applications, err := d.applicationRepo.GetList(ctx, repository.ApplicationFilter{
		ApplicantID: xcontext.RequestUserID(ctx),
		Status:      entity.ApplicationStatus(req.Status),
	}, req.Offset, defaultLimit(req.Limit))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list applications: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetMyApplicationsResponse{}
	for _, application := range applications {
		record := model.Application{
			ID:         application.ID,
			CampaignID: application.CampaignID,
			UserID:     application.ApplicantID,
			Status:     string(application.Status),
		}
		if application.ReviewedAt.Valid {
			record.ReviewedAt = application.ReviewedAt.Time.Format(time.RFC3339)
		}

		resp.Applications = append(resp.Applications, record)
	}

	return resp, nil
}

// checkMembership runs the platform check for an apply. Any unconfirmed
// answer, including an unavailable upstream, leaves the application pending.
func (d *applicationDomain) checkMembership(
	ctx context.Context, campaign *entity.Campaign, userID string,
) settlement.MembershipStatus {
	verifier, platformUserID, err := d.verifierFor(ctx, campaign, userID)
	if err != nil {
		return settlement.Unavailable
	}

	return verifier.CheckMembership(ctx, campaign.TargetChatID, platformUserID)
}

func (d *applicationDomain) verifierFor(
	ctx context.Context, campaign *entity.Campaign, userID string,
) (settlement.MembershipVerifier, string, error) {
	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, "", errorx.Unknown
	}

	switch campaign.Platform {
	case entity.PlatformVK:
		if user.VKID == "" {
			return nil, "", errorx.New(errorx.BadRequest, "Link your VK account first")
		}

		return d.vkVerifier, user.VKID, nil

	default:
		return d.telegramVerifier, user.TelegramID, nil
	}
}

func (d *applicationDomain) lastPayout(ctx context.Context, userID, campaignID string) int64 {
	entry, err := d.ledgerRepo.GetLastEarnByUserAndCampaign(ctx, userID, campaignID)
	if err != nil {
		return 0
	}

	return entry.Amount
}
