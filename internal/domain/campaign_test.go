package domain

import (
	"testing"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func newTestCampaignDomain() CampaignDomain {
	return NewCampaignDomain(
		repository.NewCampaignRepository(),
		repository.NewUserRepository(),
		repository.NewLedgerRepository(),
	)
}

func Test_campaignDomain_Create_FundsBudgetFromBalance(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)

	userRepo := repository.NewUserRepository()
	require.NoError(t, userRepo.ApplyPayout(ctx, testutil.User1.ID, 500))

	domain := newTestCampaignDomain()
	resp, err := domain.Create(ctx, &model.CreateCampaignRequest{
		Platform:     string(entity.PlatformTelegram),
		ActionType:   string(entity.ActionSubscribe),
		Title:        "New channel",
		TargetChatID: "@newchannel",
		RewardPoints: 50,
		TotalBudget:  300,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)

	user, err := userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(200), user.Balance)

	ledgerRepo := repository.NewLedgerRepository()
	entries, err := ledgerRepo.GetList(ctx, repository.LedgerFilter{UserID: testutil.User1.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entity.LedgerSpend, entries[0].Type)
	require.Equal(t, int64(-300), entries[0].Amount)
}

func Test_campaignDomain_Create_InsufficientBalance(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)

	domain := newTestCampaignDomain()
	_, err := domain.Create(ctx, &model.CreateCampaignRequest{
		Platform:     string(entity.PlatformTelegram),
		ActionType:   string(entity.ActionSubscribe),
		TargetChatID: "@newchannel",
		RewardPoints: 50,
		TotalBudget:  300,
	})

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BadRequest, errx.Code)

	// The funding must not leak through the rolled back transaction.
	campaigns, listErr := repository.NewCampaignRepository().GetList(
		ctx, repository.CampaignFilter{OwnerID: testutil.User1.ID}, 0, 10)
	require.NoError(t, listErr)
	require.Len(t, campaigns, 2)
}

func Test_campaignDomain_Create_ReactionNeedsMessage(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)

	domain := newTestCampaignDomain()
	_, err := domain.Create(ctx, &model.CreateCampaignRequest{
		Platform:     string(entity.PlatformTelegram),
		ActionType:   string(entity.ActionReaction),
		TargetChatID: "@newchannel",
		RewardPoints: 50,
		TotalBudget:  300,
	})

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BadRequest, errx.Code)
}

func Test_campaignDomain_PauseResume(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)

	domain := newTestCampaignDomain()
	campaignRepo := repository.NewCampaignRepository()

	_, err := domain.Pause(ctx, &model.PauseCampaignRequest{ID: testutil.SubscribeCampaign.ID})
	require.NoError(t, err)

	campaign, err := campaignRepo.GetByID(ctx, testutil.SubscribeCampaign.ID)
	require.NoError(t, err)
	require.Equal(t, entity.CampaignPaused, campaign.Status)

	// Pausing a paused campaign misses the guard.
	_, err = domain.Pause(ctx, &model.PauseCampaignRequest{ID: testutil.SubscribeCampaign.ID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.InvalidState, errx.Code)

	_, err = domain.Resume(ctx, &model.ResumeCampaignRequest{ID: testutil.SubscribeCampaign.ID})
	require.NoError(t, err)

	campaign, err = campaignRepo.GetByID(ctx, testutil.SubscribeCampaign.ID)
	require.NoError(t, err)
	require.Equal(t, entity.CampaignActive, campaign.Status)
}

func Test_campaignDomain_Pause_OnlyOwner(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User2.ID)
	testutil.CreateFixtureDb(ctx)

	domain := newTestCampaignDomain()
	_, err := domain.Pause(ctx, &model.PauseCampaignRequest{ID: testutil.SubscribeCampaign.ID})

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.PermissionDenied, errx.Code)
}

func Test_campaignDomain_Get_PayoutPreviewTracksRank(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User2.ID)
	testutil.CreateFixtureDb(ctx)

	domain := newTestCampaignDomain()

	resp, err := domain.Get(ctx, &model.GetCampaignRequest{ID: testutil.SubscribeCampaign.ID})
	require.NoError(t, err)
	require.Equal(t, int64(90), resp.PayoutPreview)

	// Silver adds a 5% bonus on the post-fee base.
	require.NoError(t, repository.NewUserRepository().ApplyPayout(ctx, testutil.User2.ID, 1500))

	resp, err = domain.Get(ctx, &model.GetCampaignRequest{ID: testutil.SubscribeCampaign.ID})
	require.NoError(t, err)
	require.Equal(t, int64(95), resp.PayoutPreview)
}
