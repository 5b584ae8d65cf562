package entity

import (
	"database/sql"

	"github.com/taskex-lab/backend/pkg/enum"
)

type CampaignActionType string

var (
	ActionSubscribe = enum.New(CampaignActionType("subscribe"))
	ActionReaction  = enum.New(CampaignActionType("reaction"))
)

type CampaignPlatform string

var (
	PlatformTelegram = enum.New(CampaignPlatform("telegram"))
	PlatformVK       = enum.New(CampaignPlatform("vk"))
)

type CampaignStatus string

var (
	CampaignActive    = enum.New(CampaignStatus("active"))
	CampaignPaused    = enum.New(CampaignStatus("paused"))
	CampaignCompleted = enum.New(CampaignStatus("completed"))
)

type Campaign struct {
	Base

	OwnerID string
	Owner   User `gorm:"foreignKey:OwnerID"`

	Platform   CampaignPlatform
	ActionType CampaignActionType
	Status     CampaignStatus

	Title string

	// TargetChatID is the channel or group the campaign promotes.
	// TargetMessageID is set for reaction campaigns only.
	TargetChatID    string `gorm:"index"`
	TargetMessageID sql.NullInt64

	RewardPoints    int64
	TotalBudget     int64
	RemainingBudget int64

	// ReactionCount is the last observed value of the external aggregate
	// reaction counter. Null until the first count delivery.
	ReactionCount sql.NullInt64
}
