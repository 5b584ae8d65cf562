package settlement

import (
	"testing"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_Engine_Settle_AdvancesReferralMilestone(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	referralRepo := repository.NewReferralRepository()
	referral := &entity.Referral{
		Base:            entity.Base{ID: "ref1"},
		ReferrerID:      testutil.User1.ID,
		ReferredUserID:  testutil.User2.ID,
		CompletedOrders: 4,
	}
	require.NoError(t, referralRepo.Create(ctx, referral))

	applicationRepo := repository.NewApplicationRepository()
	application := &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.SubscribeCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}
	require.NoError(t, applicationRepo.Create(ctx, application))

	// The fifth completed order crosses the orders_5 threshold, both sides
	// of the link get paid.
	_, err := engine.Settle(ctx, application.ID)
	require.NoError(t, err)

	reloaded, err := referralRepo.GetByID(ctx, referral.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5), reloaded.CompletedOrders)

	userRepo := repository.NewUserRepository()
	referrer, err := userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), referrer.Balance)

	referred, err := userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(90+50), referred.Balance)

	rewards, err := referralRepo.GetRewardsByReferral(ctx, referral.ID)
	require.NoError(t, err)
	require.Len(t, rewards, 2)
}

func Test_Engine_GrantMilestone_ExactlyOnce(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	referralRepo := repository.NewReferralRepository()
	referral := &entity.Referral{
		Base:            entity.Base{ID: "ref1"},
		ReferrerID:      testutil.User1.ID,
		ReferredUserID:  testutil.User2.ID,
		CompletedOrders: 5,
	}
	require.NoError(t, referralRepo.Create(ctx, referral))

	require.NoError(t, engine.GrantMilestone(ctx, referral, "orders_5"))
	require.NoError(t, engine.GrantMilestone(ctx, referral, "orders_5"))

	userRepo := repository.NewUserRepository()
	referrer, err := userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), referrer.Balance)

	rewards, err := referralRepo.GetRewardsByReferral(ctx, referral.ID)
	require.NoError(t, err)
	require.Len(t, rewards, 2)

	ledgerRepo := repository.NewLedgerRepository()
	entries, err := ledgerRepo.GetList(ctx,
		repository.LedgerFilter{UserID: testutil.User1.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func Test_Engine_RevokeAndPenalize_WalksReferralBack(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	referralRepo := repository.NewReferralRepository()
	referral := &entity.Referral{
		Base:           entity.Base{ID: "ref1"},
		ReferrerID:     testutil.User1.ID,
		ReferredUserID: testutil.User2.ID,
	}
	require.NoError(t, referralRepo.Create(ctx, referral))

	applicationRepo := repository.NewApplicationRepository()
	application := &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.SubscribeCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}
	require.NoError(t, applicationRepo.Create(ctx, application))

	_, err := engine.Settle(ctx, application.ID)
	require.NoError(t, err)

	require.NoError(t, engine.RevokeAndPenalize(ctx, application.ID))

	reloaded, err := referralRepo.GetByID(ctx, referral.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), reloaded.CompletedOrders)

	// Another revocation cannot push the counter below zero.
	require.NoError(t, engine.RevokeAndPenalize(ctx, application.ID))
	reloaded, err = referralRepo.GetByID(ctx, referral.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), reloaded.CompletedOrders)
}
