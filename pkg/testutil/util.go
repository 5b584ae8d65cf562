package testutil

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/taskex-lab/backend/config"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/pkg/jwt"
	"github.com/taskex-lab/backend/pkg/logger"
	"github.com/taskex-lab/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func NewMockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
		},
		Reward: config.DefaultRewardConfigs(),
	}

	node, err := snowflake.NewNode(0)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithTokenEngine(ctx,
		jwt.NewEngine[model.AccessToken](cfg.Auth.TokenSecret, cfg.Auth.AccessToken.Expiration))
	ctx = xcontext.WithSnowFlake(ctx, node)
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(db); err != nil {
		panic(err)
	}

	return ctx
}

func NewMockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(NewMockContext(), userID)
}
