package repository

import (
	"context"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

type LedgerFilter struct {
	UserID     string
	CampaignID string
	Type       entity.LedgerEntryType
}

type LedgerRepository interface {
	Create(ctx context.Context, e *entity.LedgerEntry) error
	GetList(ctx context.Context, filter LedgerFilter, offset, limit int) ([]entity.LedgerEntry, error)
	GetByUserAndReason(ctx context.Context, userID, reason string) (*entity.LedgerEntry, error)
	GetLastEarnByUserAndCampaign(ctx context.Context, userID, campaignID string) (*entity.LedgerEntry, error)
	CountByReason(ctx context.Context, reason string) (int64, error)
	SumByUser(ctx context.Context, userID string) (int64, error)
}

type ledgerRepository struct{}

func NewLedgerRepository() LedgerRepository {
	return &ledgerRepository{}
}

func (r *ledgerRepository) Create(ctx context.Context, e *entity.LedgerEntry) error {
	if e.ID == 0 {
		e.ID = xcontext.SnowFlake(ctx).Generate().Int64()
	}

	return xcontext.DB(ctx).Create(e).Error
}

func (r *ledgerRepository) GetList(
	ctx context.Context, filter LedgerFilter, offset, limit int,
) ([]entity.LedgerEntry, error) {
	result := []entity.LedgerEntry{}
	tx := xcontext.DB(ctx).
		Offset(offset).
		Limit(limit).
		Order("id DESC")

	if filter.UserID != "" {
		tx = tx.Where("user_id=?", filter.UserID)
	}

	if filter.CampaignID != "" {
		tx = tx.Where("campaign_id=?", filter.CampaignID)
	}

	if filter.Type != "" {
		tx = tx.Where("type=?", filter.Type)
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ledgerRepository) GetByUserAndReason(
	ctx context.Context, userID, reason string,
) (*entity.LedgerEntry, error) {
	result := &entity.LedgerEntry{}
	err := xcontext.DB(ctx).Take(result, "user_id=? AND reason=?", userID, reason).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ledgerRepository) GetLastEarnByUserAndCampaign(
	ctx context.Context, userID, campaignID string,
) (*entity.LedgerEntry, error) {
	result := &entity.LedgerEntry{}
	err := xcontext.DB(ctx).
		Where("user_id=? AND campaign_id=? AND type=?", userID, campaignID, entity.LedgerEarn).
		Order("id DESC").
		Take(result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ledgerRepository) CountByReason(ctx context.Context, reason string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.LedgerEntry{}).
		Where("reason=?", reason).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ledgerRepository) SumByUser(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := xcontext.DB(ctx).Model(&entity.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id=?", userID).
		Take(&sum).Error
	if err != nil {
		return 0, err
	}

	return sum, nil
}
