package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskex-lab/backend/internal/domain/settlement"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"github.com/taskex-lab/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

type StatisticDomain interface {
	GetLeaderboard(ctx context.Context, req *model.GetLeaderboardRequest) (*model.GetLeaderboardResponse, error)
	GetMyRank(ctx context.Context, req *model.GetMyRankRequest) (*model.GetMyRankResponse, error)
}

type statisticDomain struct {
	redisClient xredis.Client

	// group collapses concurrent reads of the same leaderboard page.
	group singleflight.Group
}

func NewStatisticDomain(redisClient xredis.Client) StatisticDomain {
	return &statisticDomain{redisClient: redisClient}
}

func (d *statisticDomain) GetLeaderboard(
	ctx context.Context, req *model.GetLeaderboardRequest,
) (*model.GetLeaderboardResponse, error) {
	limit := defaultLimit(req.Limit)
	key := fmt.Sprintf("%d:%d", req.Offset, limit)

	result, err, _ := d.group.Do(key, func() (any, error) {
		return d.redisClient.ZRevRangeWithScores(
			ctx, settlement.LeaderboardKey, req.Offset, limit)
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot read leaderboard: %v", err)
		return nil, errorx.Unknown
	}

	records, _ := result.([]redis.Z)

	resp := &model.GetLeaderboardResponse{}
	for _, record := range records {
		member, ok := record.Member.(string)
		if !ok {
			continue
		}

		resp.Records = append(resp.Records, model.LeaderboardRecord{
			UserID: member,
			Earned: int64(record.Score),
		})
	}

	return resp, nil
}

// GetMyRank reports the requester's place on the earned scoreboard.
func (d *statisticDomain) GetMyRank(
	ctx context.Context, req *model.GetMyRankRequest,
) (*model.GetMyRankResponse, error) {
	rank, err := d.redisClient.ZRevRank(
		ctx, settlement.LeaderboardKey, xcontext.RequestUserID(ctx))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.GetMyRankResponse{}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot read leaderboard rank: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetMyRankResponse{Position: int64(rank) + 1, Ranked: true}, nil
}
