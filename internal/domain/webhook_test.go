package domain

import (
	"testing"

	"github.com/taskex-lab/backend/internal/domain/settlement"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func newTestWebhookDomain() WebhookDomain {
	applicationRepo := repository.NewApplicationRepository()
	campaignRepo := repository.NewCampaignRepository()
	userRepo := repository.NewUserRepository()
	engine := settlement.NewEngine(
		campaignRepo, applicationRepo, userRepo,
		repository.NewLedgerRepository(), repository.NewReferralRepository())

	return NewWebhookDomain(userRepo, campaignRepo, applicationRepo, engine)
}

func Test_webhookDomain_ChatMemberEvent_JoinSettles(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	applicationRepo := repository.NewApplicationRepository()
	require.NoError(t, applicationRepo.Create(ctx, &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.SubscribeCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}))

	domain := newTestWebhookDomain()
	resp, err := domain.ChatMemberEvent(ctx, &model.ChatMemberEventRequest{
		Platform:       string(entity.PlatformTelegram),
		ChatID:         testutil.SubscribeCampaign.TargetChatID,
		PlatformUserID: testutil.User2.TelegramID,
		Joined:         true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Settled)

	user, err := repository.NewUserRepository().GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(90), user.Balance)
}

func Test_webhookDomain_ChatMemberEvent_UnknownMemberIsIgnored(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	domain := newTestWebhookDomain()
	resp, err := domain.ChatMemberEvent(ctx, &model.ChatMemberEventRequest{
		Platform:       string(entity.PlatformTelegram),
		ChatID:         testutil.SubscribeCampaign.TargetChatID,
		PlatformUserID: "99999",
		Joined:         true,
	})
	require.NoError(t, err)
	require.Zero(t, resp.Settled)
}

func Test_webhookDomain_ChatMemberEvent_PausedCampaignIsSkipped(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	campaignRepo := repository.NewCampaignRepository()
	require.NoError(t, campaignRepo.UpdateStatus(ctx,
		testutil.SubscribeCampaign.ID, entity.CampaignActive, entity.CampaignPaused))

	applicationRepo := repository.NewApplicationRepository()
	require.NoError(t, applicationRepo.Create(ctx, &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.SubscribeCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}))

	domain := newTestWebhookDomain()
	resp, err := domain.ChatMemberEvent(ctx, &model.ChatMemberEventRequest{
		Platform:       string(entity.PlatformTelegram),
		ChatID:         testutil.SubscribeCampaign.TargetChatID,
		PlatformUserID: testutil.User2.TelegramID,
		Joined:         true,
	})
	require.NoError(t, err)
	require.Zero(t, resp.Settled)

	application, err := applicationRepo.GetByID(ctx, "app1")
	require.NoError(t, err)
	require.Equal(t, entity.ApplicationPending, application.Status)
}

func Test_webhookDomain_ChatMemberEvent_LeaveRevokes(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	applicationRepo := repository.NewApplicationRepository()
	require.NoError(t, applicationRepo.Create(ctx, &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.SubscribeCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}))

	domain := newTestWebhookDomain()
	_, err := domain.ChatMemberEvent(ctx, &model.ChatMemberEventRequest{
		Platform:       string(entity.PlatformTelegram),
		ChatID:         testutil.SubscribeCampaign.TargetChatID,
		PlatformUserID: testutil.User2.TelegramID,
		Joined:         true,
	})
	require.NoError(t, err)

	resp, err := domain.ChatMemberEvent(ctx, &model.ChatMemberEventRequest{
		Platform:       string(entity.PlatformTelegram),
		ChatID:         testutil.SubscribeCampaign.TargetChatID,
		PlatformUserID: testutil.User2.TelegramID,
		Joined:         false,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Revoked)

	user, err := repository.NewUserRepository().GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Zero(t, user.Balance)

	application, err := applicationRepo.GetByID(ctx, "app1")
	require.NoError(t, err)
	require.Equal(t, entity.ApplicationRevoked, application.Status)
}

func Test_webhookDomain_ChatMemberEvent_VKNotAccepted(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	domain := newTestWebhookDomain()
	_, err := domain.ChatMemberEvent(ctx, &model.ChatMemberEventRequest{
		Platform:       string(entity.PlatformVK),
		ChatID:         "123",
		PlatformUserID: "777",
		Joined:         true,
	})

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BadRequest, errx.Code)
}

func Test_webhookDomain_ReactionCountEvent(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	applicationRepo := repository.NewApplicationRepository()
	require.NoError(t, applicationRepo.Create(ctx, &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.ReactionCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}))

	domain := newTestWebhookDomain()
	resp, err := domain.ReactionCountEvent(ctx, &model.ReactionCountEventRequest{
		Platform:   string(entity.PlatformTelegram),
		ChatID:     testutil.ReactionCampaign.TargetChatID,
		MessageID:  testutil.ReactionCampaign.TargetMessageID.Int64,
		TotalCount: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Approved)

	// A replay with the same counter is a no-op.
	resp, err = domain.ReactionCountEvent(ctx, &model.ReactionCountEventRequest{
		Platform:   string(entity.PlatformTelegram),
		ChatID:     testutil.ReactionCampaign.TargetChatID,
		MessageID:  testutil.ReactionCampaign.TargetMessageID.Int64,
		TotalCount: 10,
	})
	require.NoError(t, err)
	require.Zero(t, resp.Approved)
}
