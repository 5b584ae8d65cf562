package domain

import (
	"testing"
	"time"

	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_dailyBonusDomain_Spin(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)

	userRepo := repository.NewUserRepository()
	domain := NewDailyBonusDomain(
		userRepo, repository.NewLedgerRepository(), testutil.NewMockRedisClient())

	resp, err := domain.Spin(ctx, &model.SpinDailyBonusRequest{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, resp.Points, int64(5))
	require.LessOrEqual(t, resp.Points, int64(50))
	require.NotEmpty(t, resp.NextSpinAt)

	user, err := userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, resp.Points, user.Balance)

	// Same UTC day, second spin refused.
	_, err = domain.Spin(ctx, &model.SpinDailyBonusRequest{})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.TooManyRequests, errx.Code)
	require.Contains(t, errx.Detail, "next_spin_at")
}

func Test_dailyBonusDomain_Spin_ConcurrentSpinIsThrottled(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	testutil.CreateFixtureDb(ctx)

	redisClient := testutil.NewMockRedisClient()
	domain := NewDailyBonusDomain(
		repository.NewUserRepository(), repository.NewLedgerRepository(), redisClient)

	// Another request already holds the per-user lock.
	locked, err := redisClient.TryLock(ctx, "daily_bonus:"+testutil.User1.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	_, err = domain.Spin(ctx, &model.SpinDailyBonusRequest{})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.TooManyRequests, errx.Code)

	// Once the holder finishes, the spin goes through and pays exactly once.
	require.NoError(t, redisClient.Unlock(ctx, "daily_bonus:"+testutil.User1.ID))

	resp, err := domain.Spin(ctx, &model.SpinDailyBonusRequest{})
	require.NoError(t, err)

	user, err := repository.NewUserRepository().GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, resp.Points, user.Balance)
}
