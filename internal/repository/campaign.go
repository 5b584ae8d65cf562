package repository

import (
	"context"
	"database/sql"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type CampaignFilter struct {
	OwnerID    string
	Status     entity.CampaignStatus
	ActionType entity.CampaignActionType
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign *entity.Campaign) error
	GetByID(ctx context.Context, id string) (*entity.Campaign, error)
	GetList(ctx context.Context, filter CampaignFilter, offset, limit int) ([]entity.Campaign, error)
	GetByTargetMessage(ctx context.Context, platform entity.CampaignPlatform, chatID string, messageID int64) ([]entity.Campaign, error)
	GetSubscribeByTargetChat(ctx context.Context, platform entity.CampaignPlatform, chatID string) ([]entity.Campaign, error)
	UpdateStatus(ctx context.Context, id string, from, to entity.CampaignStatus) error
	DecreaseBudget(ctx context.Context, id string, amount int64) error
	SetReactionCount(ctx context.Context, id string, count int64) error
}

type campaignRepository struct{}

func NewCampaignRepository() CampaignRepository {
	return &campaignRepository{}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *entity.Campaign) error {
	return xcontext.DB(ctx).Create(campaign).Error
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*entity.Campaign, error) {
	result := &entity.Campaign{}
	if err := xcontext.DB(ctx).Take(result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *campaignRepository) GetList(
	ctx context.Context, filter CampaignFilter, offset, limit int,
) ([]entity.Campaign, error) {
	result := []entity.Campaign{}
	tx := xcontext.DB(ctx).
		Offset(offset).
		Limit(limit).
		Order("created_at DESC")

	if filter.OwnerID != "" {
		tx = tx.Where("owner_id=?", filter.OwnerID)
	}

	if filter.Status != "" {
		tx = tx.Where("status=?", filter.Status)
	}

	if filter.ActionType != "" {
		tx = tx.Where("action_type=?", filter.ActionType)
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *campaignRepository) GetByTargetMessage(
	ctx context.Context, platform entity.CampaignPlatform, chatID string, messageID int64,
) ([]entity.Campaign, error) {
	result := []entity.Campaign{}
	err := xcontext.DB(ctx).
		Where("platform=? AND target_chat_id=? AND target_message_id=? AND action_type=?",
			platform, chatID, messageID, entity.ActionReaction).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *campaignRepository) GetSubscribeByTargetChat(
	ctx context.Context, platform entity.CampaignPlatform, chatID string,
) ([]entity.Campaign, error) {
	result := []entity.Campaign{}
	err := xcontext.DB(ctx).
		Where("platform=? AND target_chat_id=? AND action_type=?",
			platform, chatID, entity.ActionSubscribe).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateStatus transitions the campaign status only when the current status
// matches from, so concurrent transitions cannot stomp each other.
func (r *campaignRepository) UpdateStatus(
	ctx context.Context, id string, from, to entity.CampaignStatus,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Campaign{}).
		Where("id=? AND status=?", id, from).
		Update("status", to)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DecreaseBudget decrements the remaining budget and flips the campaign to
// completed in the same write when the remainder can no longer cover one
// reward. It refuses the decrement when the budget is insufficient or the
// campaign is not active.
func (r *campaignRepository) DecreaseBudget(ctx context.Context, id string, amount int64) error {
	tx := xcontext.DB(ctx).Model(&entity.Campaign{}).
		Where("id=? AND status=? AND remaining_budget >= ?", id, entity.CampaignActive, amount).
		Updates(map[string]any{
			"remaining_budget": gorm.Expr("remaining_budget - ?", amount),
			"status": gorm.Expr("CASE WHEN remaining_budget - ? < reward_points THEN ? ELSE status END",
				amount, entity.CampaignCompleted),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *campaignRepository) SetReactionCount(ctx context.Context, id string, count int64) error {
	return xcontext.DB(ctx).Model(&entity.Campaign{}).
		Where("id=?", id).
		Update("reaction_count", sql.NullInt64{Int64: count, Valid: true}).Error
}
