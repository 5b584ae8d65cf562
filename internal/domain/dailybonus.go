package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/crypto"
	"github.com/taskex-lab/backend/pkg/dateutil"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"github.com/taskex-lab/backend/pkg/xredis"
	"gorm.io/gorm"
)

type DailyBonusDomain interface {
	Spin(ctx context.Context, req *model.SpinDailyBonusRequest) (*model.SpinDailyBonusResponse, error)
}

type dailyBonusDomain struct {
	userRepo    repository.UserRepository
	ledgerRepo  repository.LedgerRepository
	redisClient xredis.Client
}

func NewDailyBonusDomain(
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	redisClient xredis.Client,
) DailyBonusDomain {
	return &dailyBonusDomain{userRepo: userRepo, ledgerRepo: ledgerRepo, redisClient: redisClient}
}

// Spin pays a uniform random bonus once per UTC day. The per-user advisory
// lock serializes concurrent spins, the dated ledger reason dedupes across
// days and restarts.
func (d *dailyBonusDomain) Spin(
	ctx context.Context, req *model.SpinDailyBonusRequest,
) (*model.SpinDailyBonusResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	now := time.Now()
	reason := fmt.Sprintf("daily_bonus:%s", dateutil.Day(now))
	nextSpinAt := dateutil.NextDay(now)

	lockKey := "daily_bonus:" + userID
	locked, err := d.redisClient.TryLock(ctx, lockKey, 10*time.Second)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot take daily bonus lock: %v", err)
		return nil, errorx.Unknown
	}

	if !locked {
		return nil, errorx.New(errorx.TooManyRequests, "Another spin is in flight")
	}
	defer d.redisClient.Unlock(ctx, lockKey)

	if _, err := d.ledgerRepo.GetByUserAndReason(ctx, userID, reason); err == nil {
		return nil, errorx.New(errorx.TooManyRequests, "Already spun today").
			WithDetail("next_spin_at", nextSpinAt.Format(time.RFC3339))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot check daily bonus: %v", err)
		return nil, errorx.Unknown
	}

	reward := xcontext.Configs(ctx).Reward
	points := reward.DailyBonusMinPoints
	if spread := reward.DailyBonusMaxPoints - reward.DailyBonusMinPoints; spread > 0 {
		points += int64(crypto.RandIntn(int(spread) + 1))
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.userRepo.ApplyPayout(ctx, userID, points); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot credit daily bonus: %v", err)
		return nil, errorx.Unknown
	}

	err = d.ledgerRepo.Create(ctx, &entity.LedgerEntry{
		UserID: userID,
		Type:   entity.LedgerEarn,
		Amount: points,
		Reason: reason,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append daily bonus ledger entry: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.SpinDailyBonusResponse{
		Points:     points,
		NextSpinAt: nextSpinAt.Format(time.RFC3339),
	}, nil
}
