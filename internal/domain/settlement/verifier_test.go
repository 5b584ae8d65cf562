package settlement

import (
	"testing"
	"time"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/testutil"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_Engine_RecheckMembership_CooldownProtocol(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	applicationRepo := repository.NewApplicationRepository()
	application := &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.SubscribeCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}
	require.NoError(t, applicationRepo.Create(ctx, application))

	verifier := &MockMembershipVerifier{}

	// The first check is never throttled.
	result, err := engine.RecheckMembership(ctx, verifier, application.ID, testutil.User2.TelegramID)
	require.NoError(t, err)
	require.Equal(t, NotMember, result.Status)
	require.False(t, result.NextRetryAt.IsZero())
	require.Equal(t, 1, verifier.Calls)

	// The second immediate check hits the cooldown and never reaches the
	// upstream API.
	_, err = engine.RecheckMembership(ctx, verifier, application.ID, testutil.User2.TelegramID)
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.RetryCooldown, errx.Code)
	require.Positive(t, errx.Detail["retry_after_sec"])
	require.Equal(t, 1, verifier.Calls)
}

func Test_Engine_RecheckMembership_MemberSettlesInline(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	applicationRepo := repository.NewApplicationRepository()
	application := &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.SubscribeCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}
	require.NoError(t, applicationRepo.Create(ctx, application))

	verifier := &MockMembershipVerifier{
		Statuses: map[string]MembershipStatus{
			testutil.SubscribeCampaign.TargetChatID + "/" + testutil.User2.TelegramID: Member,
		},
	}

	result, err := engine.RecheckMembership(ctx, verifier, application.ID, testutil.User2.TelegramID)
	require.NoError(t, err)
	require.Equal(t, Member, result.Status)
	require.Equal(t, entity.ApplicationApproved, result.Application.Status)

	userRepo := repository.NewUserRepository()
	user, err := userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(90), user.Balance)
}

func Test_Engine_RecheckMembership_CooldownExpires(t *testing.T) {
	ctx := testutil.NewMockContext()
	cfg := xcontext.Configs(ctx)
	cfg.Reward.RecheckCooldown = time.Millisecond
	ctx = xcontext.WithConfigs(ctx, cfg)

	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	applicationRepo := repository.NewApplicationRepository()
	application := &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.SubscribeCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}
	require.NoError(t, applicationRepo.Create(ctx, application))

	verifier := &MockMembershipVerifier{}

	_, err := engine.RecheckMembership(ctx, verifier, application.ID, testutil.User2.TelegramID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = engine.RecheckMembership(ctx, verifier, application.ID, testutil.User2.TelegramID)
	require.NoError(t, err)
	require.Equal(t, 2, verifier.Calls)

	reloaded, err := applicationRepo.GetByID(ctx, application.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.VerificationChecks)
}

func Test_Engine_RecheckMembership_Unavailable(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	engine := newTestEngine()

	applicationRepo := repository.NewApplicationRepository()
	application := &entity.Application{
		Base:        entity.Base{ID: "app1"},
		CampaignID:  testutil.SubscribeCampaign.ID,
		ApplicantID: testutil.User2.ID,
		Status:      entity.ApplicationPending,
	}
	require.NoError(t, applicationRepo.Create(ctx, application))

	verifier := &MockMembershipVerifier{
		Statuses: map[string]MembershipStatus{
			testutil.SubscribeCampaign.TargetChatID + "/" + testutil.User2.TelegramID: Unavailable,
		},
	}

	_, err := engine.RecheckMembership(ctx, verifier, application.ID, testutil.User2.TelegramID)
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.Unavailable, errx.Code)

	// Availability failures do not consume the cooldown.
	reloaded, err := applicationRepo.GetByID(ctx, application.ID)
	require.NoError(t, err)
	require.Equal(t, 0, reloaded.VerificationChecks)
}
