package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"github.com/taskex-lab/backend/pkg/xredis"
	"gorm.io/gorm"
)

// LeaderboardKey is the redis sorted set holding lifetime earned scores.
const LeaderboardKey = "leaderboard:earned"

// Engine is the only code path that moves campaign budget and user points.
// Every public method opens its own transaction and serializes with other
// settlements of the same campaign through a per-campaign mutex, so no two
// concurrent calls can both observe sufficient budget and both spend it.
type Engine struct {
	campaignRepo    repository.CampaignRepository
	applicationRepo repository.ApplicationRepository
	userRepo        repository.UserRepository
	ledgerRepo      repository.LedgerRepository
	referralRepo    repository.ReferralRepository

	campaignMutex *xsync.MapOf[string, *sync.Mutex]

	// leaderboard is optional; when set, every payout bumps the member score.
	leaderboard xredis.Client
}

func NewEngine(
	campaignRepo repository.CampaignRepository,
	applicationRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	referralRepo repository.ReferralRepository,
) *Engine {
	return &Engine{
		campaignRepo:    campaignRepo,
		applicationRepo: applicationRepo,
		userRepo:        userRepo,
		ledgerRepo:      ledgerRepo,
		referralRepo:    referralRepo,
		campaignMutex:   xsync.NewMapOf[*sync.Mutex](),
	}
}

// WithLeaderboard turns on the redis scoreboard. Scores are best effort, a
// redis outage never fails a settlement.
func (e *Engine) WithLeaderboard(client xredis.Client) *Engine {
	e.leaderboard = client
	return e
}

func (e *Engine) lockCampaign(campaignID string) func() {
	mutex, _ := e.campaignMutex.LoadOrStore(campaignID, &sync.Mutex{})
	mutex.Lock()
	return mutex.Unlock
}

// Settle approves one pending application and pays the applicant. It is
// idempotent on an already approved application and refuses paused campaigns,
// exhausted budgets, and blocked users. Callers must re-evaluate state on
// those failures instead of retrying blindly.
func (e *Engine) Settle(ctx context.Context, applicationID string) (*entity.Application, error) {
	application, err := e.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found application")
		}

		xcontext.Logger(ctx).Errorf("Cannot get application: %v", err)
		return nil, errorx.Unknown
	}

	unlock := e.lockCampaign(application.CampaignID)
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// Re-read everything fresh inside the transaction, the state may have
	// moved while we waited on the campaign lock.
	application, err = e.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload application: %v", err)
		return nil, errorx.Unknown
	}

	if application.Status == entity.ApplicationApproved {
		return application, nil
	}

	if application.Status != entity.ApplicationPending {
		return nil, errorx.New(errorx.InvalidState,
			"Application is %s, cannot be settled", application.Status)
	}

	campaign, err := e.campaignRepo.GetByID(ctx, application.CampaignID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get campaign: %v", err)
		return nil, errorx.Unknown
	}

	if campaign.Status != entity.CampaignActive {
		return nil, errorx.New(errorx.InvalidState, "Campaign is not accepting settlements")
	}

	if campaign.RemainingBudget < campaign.RewardPoints {
		return nil, errorx.New(errorx.BudgetExhausted, "Campaign budget is exhausted")
	}

	applicant, err := e.userRepo.GetByID(ctx, application.ApplicantID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get applicant: %v", err)
		return nil, errorx.Unknown
	}

	if state := ResolveBlockState(applicant, time.Now()); state.Blocked {
		err := errorx.New(errorx.UserBlocked, "User is blocked").
			WithDetail("reason", state.Reason)
		if !state.Until.IsZero() {
			err = err.WithDetail("blocked_until", state.Until.Format(time.RFC3339))
		}

		return nil, err
	}

	if err := e.applicationRepo.ApproveByID(ctx, application.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot approve application: %v", err)
		return nil, errorx.Unknown
	}

	if err := e.campaignRepo.DecreaseBudget(ctx, campaign.ID, campaign.RewardPoints); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.BudgetExhausted, "Campaign budget is exhausted")
		}

		xcontext.Logger(ctx).Errorf("Cannot decrease campaign budget: %v", err)
		return nil, errorx.Unknown
	}

	payout, err := e.payApplicant(ctx, applicant, campaign)
	if err != nil {
		return nil, err
	}

	if err := e.progressReferral(ctx, applicant.ID, 1); err != nil {
		return nil, err
	}

	xcontext.WithCommitDBTransaction(ctx)

	// Only after the commit, a rolled back settlement must not leave a score.
	e.bumpLeaderboard(ctx, applicant.ID, payout)

	application.Status = entity.ApplicationApproved
	return application, nil
}

// payApplicant credits the rank-adjusted payout and appends the EARN ledger
// entry, returning the credited amount. The bonus tier comes from the total
// earned before this payout.
func (e *Engine) payApplicant(
	ctx context.Context, applicant *entity.User, campaign *entity.Campaign,
) (int64, error) {
	payout := Payout(xcontext.Configs(ctx).Reward, campaign.RewardPoints, applicant.TotalEarned)

	if err := e.userRepo.ApplyPayout(ctx, applicant.ID, payout); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot credit payout: %v", err)
		return 0, errorx.Unknown
	}

	err := e.ledgerRepo.Create(ctx, &entity.LedgerEntry{
		UserID:     applicant.ID,
		Type:       entity.LedgerEarn,
		Amount:     payout,
		Reason:     fmt.Sprintf("campaign %s completed", campaign.ID),
		CampaignID: sql.NullString{String: campaign.ID, Valid: true},
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append ledger entry: %v", err)
		return 0, errorx.Unknown
	}

	return payout, nil
}

// bumpLeaderboard adds a committed payout to the redis scoreboard. Best
// effort, a redis outage never fails a settlement.
func (e *Engine) bumpLeaderboard(ctx context.Context, userID string, payout int64) {
	if e.leaderboard == nil || payout == 0 {
		return
	}

	if err := e.leaderboard.ZIncrBy(ctx, LeaderboardKey, payout, userID); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot update leaderboard: %v", err)
	}
}
