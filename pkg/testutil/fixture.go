package testutil

import (
	"context"
	"database/sql"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/repository"
)

// Fixture identities reused across package tests.
var (
	User1 = entity.User{
		Base:         entity.Base{ID: "user1"},
		Name:         "User One",
		TelegramID:   "10001",
		ReferralCode: "USERONE11",
	}

	User2 = entity.User{
		Base:         entity.Base{ID: "user2"},
		Name:         "User Two",
		TelegramID:   "10002",
		ReferralCode: "USERTWO22",
	}

	BlockedUser = entity.User{
		Base:         entity.Base{ID: "blocked-user"},
		Name:         "Blocked User",
		TelegramID:   "10003",
		ReferralCode: "BLOCKED33",
		IsBlocked:    true,
		BlockReason:  "spam",
	}

	SubscribeCampaign = entity.Campaign{
		Base:            entity.Base{ID: "subscribe-campaign"},
		OwnerID:         User1.ID,
		Platform:        entity.PlatformTelegram,
		ActionType:      entity.ActionSubscribe,
		Status:          entity.CampaignActive,
		Title:           "Join my channel",
		TargetChatID:    "@user1channel",
		RewardPoints:    100,
		TotalBudget:     1000,
		RemainingBudget: 1000,
	}

	ReactionCampaign = entity.Campaign{
		Base:            entity.Base{ID: "reaction-campaign"},
		OwnerID:         User1.ID,
		Platform:        entity.PlatformTelegram,
		ActionType:      entity.ActionReaction,
		Status:          entity.CampaignActive,
		Title:           "React to my post",
		TargetChatID:    "@user1channel",
		TargetMessageID: sql.NullInt64{Int64: 42, Valid: true},
		RewardPoints:    50,
		TotalBudget:     500,
		RemainingBudget: 500,
	}
)

func CreateFixtureDb(ctx context.Context) {
	InsertUsers(ctx)
	InsertCampaigns(ctx)
}

func InsertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()

	for _, user := range []entity.User{User1, User2, BlockedUser} {
		user := user
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}

func InsertCampaigns(ctx context.Context) {
	campaignRepo := repository.NewCampaignRepository()

	for _, campaign := range []entity.Campaign{SubscribeCampaign, ReactionCampaign} {
		campaign := campaign
		if err := campaignRepo.Create(ctx, &campaign); err != nil {
			panic(err)
		}
	}
}
