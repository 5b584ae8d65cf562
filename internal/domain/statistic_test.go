package domain

import (
	"testing"

	"github.com/taskex-lab/backend/internal/domain/settlement"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_statisticDomain_GetLeaderboard(t *testing.T) {
	ctx := testutil.NewMockContext()

	redisClient := testutil.NewMockRedisClient()
	require.NoError(t, redisClient.ZIncrBy(ctx, settlement.LeaderboardKey, 300, "user1"))
	require.NoError(t, redisClient.ZIncrBy(ctx, settlement.LeaderboardKey, 500, "user2"))
	require.NoError(t, redisClient.ZIncrBy(ctx, settlement.LeaderboardKey, 100, "user3"))

	domain := NewStatisticDomain(redisClient)
	resp, err := domain.GetLeaderboard(ctx, &model.GetLeaderboardRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Records, 2)
	require.Equal(t, model.LeaderboardRecord{UserID: "user2", Earned: 500}, resp.Records[0])
	require.Equal(t, model.LeaderboardRecord{UserID: "user1", Earned: 300}, resp.Records[1])
}

func Test_statisticDomain_GetMyRank(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID("user1")

	redisClient := testutil.NewMockRedisClient()
	require.NoError(t, redisClient.ZIncrBy(ctx, settlement.LeaderboardKey, 300, "user1"))
	require.NoError(t, redisClient.ZIncrBy(ctx, settlement.LeaderboardKey, 500, "user2"))

	domain := NewStatisticDomain(redisClient)
	resp, err := domain.GetMyRank(ctx, &model.GetMyRankRequest{})
	require.NoError(t, err)
	require.True(t, resp.Ranked)
	require.Equal(t, int64(2), resp.Position)

	// A user who never earned is not on the board.
	resp, err = domain.GetMyRank(
		testutil.NewMockContextWithUserID("stranger"), &model.GetMyRankRequest{})
	require.NoError(t, err)
	require.False(t, resp.Ranked)
	require.Zero(t, resp.Position)
}
