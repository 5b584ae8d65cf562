package repository

import (
	"context"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralRepository interface {
	Create(ctx context.Context, referral *entity.Referral) error
	GetByID(ctx context.Context, id string) (*entity.Referral, error)
	GetByReferredUser(ctx context.Context, referredUserID string) (*entity.Referral, error)
	GetByReferrer(ctx context.Context, referrerID string) ([]entity.Referral, error)
	AddProgress(ctx context.Context, id string, delta int) error
	CreateReward(ctx context.Context, reward *entity.ReferralReward) (bool, error)
	GetRewardsByReferral(ctx context.Context, referralID string) ([]entity.ReferralReward, error)
}

type referralRepository struct{}

func NewReferralRepository() ReferralRepository {
	return &referralRepository{}
}

func (r *referralRepository) Create(ctx context.Context, referral *entity.Referral) error {
	return xcontext.DB(ctx).Create(referral).Error
}

func (r *referralRepository) GetByID(ctx context.Context, id string) (*entity.Referral, error) {
	result := &entity.Referral{}
	if err := xcontext.DB(ctx).Take(result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *referralRepository) GetByReferredUser(
	ctx context.Context, referredUserID string,
) (*entity.Referral, error) {
	result := &entity.Referral{}
	err := xcontext.DB(ctx).Take(result, "referred_user_id=?", referredUserID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *referralRepository) GetByReferrer(
	ctx context.Context, referrerID string,
) ([]entity.Referral, error) {
	result := []entity.Referral{}
	err := xcontext.DB(ctx).
		Where("referrer_id=?", referrerID).
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AddProgress moves the completed order counter by delta, never below zero.
func (r *referralRepository) AddProgress(ctx context.Context, id string, delta int) error {
	tx := xcontext.DB(ctx).Model(&entity.Referral{}).
		Where("id=? AND completed_orders + ? >= 0", id, delta).
		Update("completed_orders", gorm.Expr("completed_orders + ?", delta))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// CreateReward inserts a milestone reward row. The unique index on
// (referral_id, side, milestone) plus DO NOTHING makes the grant exactly-once.
// It reports whether this call actually inserted the row.
func (r *referralRepository) CreateReward(
	ctx context.Context, reward *entity.ReferralReward,
) (bool, error) {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reward)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *referralRepository) GetRewardsByReferral(
	ctx context.Context, referralID string,
) ([]entity.ReferralReward, error) {
	result := []entity.ReferralReward{}
	err := xcontext.DB(ctx).
		Where("referral_id=?", referralID).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
