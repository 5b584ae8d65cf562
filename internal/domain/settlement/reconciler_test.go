package settlement

import (
	"database/sql"
	"testing"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_Engine_ReconcileReactions_FirstObservation(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	applicationRepo := repository.NewApplicationRepository()
	application := &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.ReactionCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}
	require.NoError(t, applicationRepo.Create(ctx, application))

	// With no watermark yet, one new reaction is assumed no matter how big
	// the observed total is.
	approved, err := engine.ReconcileReactions(ctx, testutil.ReactionCampaign.ID, 5)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, application.ID, approved[0].ID)

	campaignRepo := repository.NewCampaignRepository()
	campaign, err := campaignRepo.GetByID(ctx, testutil.ReactionCampaign.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5), campaign.ReactionCount.Int64)
	require.Equal(t, int64(450), campaign.RemainingBudget)
}

func Test_Engine_ReconcileReactions_ReplayIsNoop(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	applicationRepo := repository.NewApplicationRepository()
	for i, applicant := range []string{testutil.User1.ID, testutil.User2.ID} {
		application := &entity.Application{
			Base:        entity.Base{ID: "app" + string(rune('1'+i))},
			CampaignID:  testutil.ReactionCampaign.ID,
			ApplicantID: applicant,
			Status:      entity.ApplicationPending,
		}
		require.NoError(t, applicationRepo.Create(ctx, application))
	}

	approved, err := engine.ReconcileReactions(ctx, testutil.ReactionCampaign.ID, 5)
	require.NoError(t, err)
	require.Len(t, approved, 1)

	// The same delivery again computes a zero delta and settles nothing.
	approved, err = engine.ReconcileReactions(ctx, testutil.ReactionCampaign.ID, 5)
	require.NoError(t, err)
	require.Empty(t, approved)

	// A backward counter is equally ignored.
	approved, err = engine.ReconcileReactions(ctx, testutil.ReactionCampaign.ID, 3)
	require.NoError(t, err)
	require.Empty(t, approved)
}

func Test_Engine_ReconcileReactions_DeltaAndBudgetBound(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	campaignRepo := repository.NewCampaignRepository()
	require.NoError(t, campaignRepo.SetReactionCount(ctx, testutil.ReactionCampaign.ID, 2))

	userRepo := repository.NewUserRepository()
	applicationRepo := repository.NewApplicationRepository()
	for i := 0; i < 5; i++ {
		userID := "reactor" + string(rune('1'+i))
		user := &entity.User{
			Base:         entity.Base{ID: userID},
			TelegramID:   "2000" + string(rune('1'+i)),
			ReferralCode: "REACT" + string(rune('1'+i)),
		}
		require.NoError(t, userRepo.Create(ctx, user))

		application := &entity.Application{
			Base:        entity.Base{ID: "app-" + userID},
			CampaignID:  testutil.ReactionCampaign.ID,
			ApplicantID: userID,
			Status:      entity.ApplicationPending,
		}
		require.NoError(t, applicationRepo.Create(ctx, application))
	}

	// Delta is three, budget allows ten, so exactly three settle.
	approved, err := engine.ReconcileReactions(ctx, testutil.ReactionCampaign.ID, 5)
	require.NoError(t, err)
	require.Len(t, approved, 3)

	campaign, err := campaignRepo.GetByID(ctx, testutil.ReactionCampaign.ID)
	require.NoError(t, err)
	require.Equal(t, int64(350), campaign.RemainingBudget)
}

func Test_Engine_ReconcileReactions_PrefersKnownBaseline(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	campaignRepo := repository.NewCampaignRepository()
	require.NoError(t, campaignRepo.SetReactionCount(ctx, testutil.ReactionCampaign.ID, 4))

	applicationRepo := repository.NewApplicationRepository()
	withBaseline := &entity.Application{
		Base:             entity.Base{ID: "app-known"},
		CampaignID:       testutil.ReactionCampaign.ID,
		ApplicantID:      testutil.User2.ID,
		Status:           entity.ApplicationPending,
		ReactionBaseline: sql.NullInt64{Int64: 3, Valid: true},
	}
	require.NoError(t, applicationRepo.Create(ctx, withBaseline))

	withoutBaseline := &entity.Application{
		Base:        entity.Base{ID: "app-unknown"},
		CampaignID:  testutil.ReactionCampaign.ID,
		ApplicantID: testutil.User1.ID,
		Status:      entity.ApplicationPending,
	}
	require.NoError(t, applicationRepo.Create(ctx, withoutBaseline))

	approved, err := engine.ReconcileReactions(ctx, testutil.ReactionCampaign.ID, 5)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, "app-known", approved[0].ID)
}

func Test_Engine_ReconcileReactions_SkipsBlockedUsers(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	campaignRepo := repository.NewCampaignRepository()
	require.NoError(t, campaignRepo.SetReactionCount(ctx, testutil.ReactionCampaign.ID, 4))

	applicationRepo := repository.NewApplicationRepository()
	blocked := &entity.Application{
		Base:             entity.Base{ID: "app-blocked"},
		CampaignID:       testutil.ReactionCampaign.ID,
		ApplicantID:      testutil.BlockedUser.ID,
		Status:           entity.ApplicationPending,
		ReactionBaseline: sql.NullInt64{Int64: 4, Valid: true},
	}
	require.NoError(t, applicationRepo.Create(ctx, blocked))

	clean := &entity.Application{
		Base:        entity.Base{ID: "app-clean"},
		CampaignID:  testutil.ReactionCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}
	require.NoError(t, applicationRepo.Create(ctx, clean))

	approved, err := engine.ReconcileReactions(ctx, testutil.ReactionCampaign.ID, 5)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, "app-clean", approved[0].ID)

	reloaded, err := applicationRepo.GetByID(ctx, blocked.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ApplicationPending, reloaded.Status)
}
