package domain

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/crypto"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"github.com/taskex-lab/backend/pkg/xredis"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"gorm.io/gorm"
)

const (
	referralCodeLength   = 9
	referralCodeAttempts = 5

	welcomeBonusReason = "welcome_bonus"
	welcomeBonusLock   = "welcome_bonus"

	welcomeBonusLockAttempts = 10
	welcomeBonusLockBackoff  = 50 * time.Millisecond
)

type AuthDomain interface {
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
}

type authDomain struct {
	userRepo     repository.UserRepository
	referralRepo repository.ReferralRepository
	ledgerRepo   repository.LedgerRepository
	engine       milestoneGranter
	redisClient  xredis.Client
}

// milestoneGranter is the slice of the settlement engine the login flow
// needs, the join milestone fired at link time.
type milestoneGranter interface {
	GrantMilestone(ctx context.Context, referral *entity.Referral, milestoneKey string) error
}

func NewAuthDomain(
	userRepo repository.UserRepository,
	referralRepo repository.ReferralRepository,
	ledgerRepo repository.LedgerRepository,
	engine milestoneGranter,
	redisClient xredis.Client,
) AuthDomain {
	return &authDomain{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		ledgerRepo:   ledgerRepo,
		engine:       engine,
		redisClient:  redisClient,
	}
}

func (d *authDomain) Login(
	ctx context.Context, req *model.LoginRequest,
) (*model.LoginResponse, error) {
	cfg := xcontext.Configs(ctx).Telegram
	if err := initdata.Validate(req.InitData, cfg.BotToken, cfg.InitDataExpiration); err != nil {
		return nil, errorx.New(errorx.Unauthenticated, "Invalid init data")
	}

	data, err := initdata.Parse(req.InitData)
	if err != nil {
		return nil, errorx.New(errorx.Unauthenticated, "Invalid init data")
	}

	telegramID := strconv.FormatInt(data.User.ID, 10)
	user, err := d.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
			return nil, errorx.Unknown
		}

		user, err = d.createUser(ctx, telegramID, displayName(data))
		if err != nil {
			return nil, err
		}

		d.linkReferral(ctx, user, req.ReferralCode)
		d.grantWelcomeBonus(ctx, user)
	}

	token, err := xcontext.TokenEngine(ctx).Generate(user.ID, model.AccessToken{
		ID:   user.ID,
		Name: user.Name,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.LoginResponse{
		User:        convertUser(ctx, user),
		AccessToken: token,
	}, nil
}

// createUser inserts the user with a fresh referral code. A code collision
// regenerates a bounded number of times before giving up.
func (d *authDomain) createUser(
	ctx context.Context, telegramID, name string,
) (*entity.User, error) {
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		user := &entity.User{
			Base:         entity.Base{ID: uuid.NewString()},
			Name:         name,
			TelegramID:   telegramID,
			Role:         entity.RoleUser,
			ReferralCode: crypto.GenerateRandomAlphabet(referralCodeLength),
		}

		err := d.userRepo.Create(ctx, user)
		if err == nil {
			return user, nil
		}

		if isUniqueViolation(err) {
			continue
		}

		xcontext.Logger(ctx).Errorf("Cannot create user: %v", err)
		return nil, errorx.Unknown
	}

	return nil, errorx.New(errorx.Collision, "Cannot allocate a referral code, try again")
}

// linkReferral ties the new user to the owner of the supplied code. All
// failure modes are silent, a bad code never breaks a login.
func (d *authDomain) linkReferral(ctx context.Context, user *entity.User, code string) {
	if code == "" {
		return
	}

	referrer, err := d.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Warnf("Cannot resolve referral code: %v", err)
		}

		return
	}

	if referrer.ID == user.ID {
		return
	}

	if _, err := d.referralRepo.GetByReferredUser(ctx, user.ID); err == nil {
		return
	}

	referral := &entity.Referral{
		Base:           entity.Base{ID: uuid.NewString()},
		ReferrerID:     referrer.ID,
		ReferredUserID: user.ID,
	}

	if err := d.referralRepo.Create(ctx, referral); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot create referral: %v", err)
		return
	}

	for _, milestone := range xcontext.Configs(ctx).Reward.ReferralMilestones {
		if milestone.Orders == 0 {
			if err := d.engine.GrantMilestone(ctx, referral, milestone.Key); err != nil {
				xcontext.Logger(ctx).Warnf("Cannot grant join milestone: %v", err)
			}
		}
	}
}

// grantWelcomeBonus pays the one-off signup bonus while the global cap has
// room. The advisory lock serializes the count-then-grant across processes;
// the ledger reason is the per-user dedupe key.
func (d *authDomain) grantWelcomeBonus(ctx context.Context, user *entity.User) {
	reward := xcontext.Configs(ctx).Reward
	if reward.WelcomeBonusPoints <= 0 || reward.WelcomeBonusMaxUsers <= 0 {
		return
	}

	// The lock is only held for a short count-and-grant, so wait it out with a
	// few retries instead of forfeiting the bonus to a concurrent signup.
	var locked bool
	for attempt := 0; attempt < welcomeBonusLockAttempts; attempt++ {
		var err error
		locked, err = d.redisClient.TryLock(ctx, welcomeBonusLock, 10*time.Second)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot take welcome bonus lock: %v", err)
			return
		}

		if locked {
			break
		}

		time.Sleep(welcomeBonusLockBackoff)
	}

	if !locked {
		xcontext.Logger(ctx).Warnf("Welcome bonus lock is still held, skipping user %s", user.ID)
		return
	}
	defer d.redisClient.Unlock(ctx, welcomeBonusLock)

	granted, err := d.ledgerRepo.CountByReason(ctx, welcomeBonusReason)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot count welcome bonuses: %v", err)
		return
	}

	if granted >= reward.WelcomeBonusMaxUsers {
		return
	}

	if _, err := d.ledgerRepo.GetByUserAndReason(ctx, user.ID, welcomeBonusReason); err == nil {
		return
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.userRepo.ApplyPayout(ctx, user.ID, reward.WelcomeBonusPoints); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot credit welcome bonus: %v", err)
		return
	}

	err = d.ledgerRepo.Create(ctx, &entity.LedgerEntry{
		UserID: user.ID,
		Type:   entity.LedgerEarn,
		Amount: reward.WelcomeBonusPoints,
		Reason: welcomeBonusReason,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot append welcome bonus ledger entry: %v", err)
		return
	}

	xcontext.WithCommitDBTransaction(ctx)

	user.Balance += reward.WelcomeBonusPoints
	user.TotalEarned += reward.WelcomeBonusPoints
}

func displayName(data initdata.InitData) string {
	name := strings.TrimSpace(data.User.FirstName + " " + data.User.LastName)
	if name == "" {
		name = data.User.Username
	}

	return name
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
