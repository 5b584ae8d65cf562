package repository

import (
	"context"
	"database/sql"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*entity.User, error)
	SetVKID(ctx context.Context, id, vkID string) error
	GetByReferralCode(ctx context.Context, code string) (*entity.User, error)
	ApplyPayout(ctx context.Context, id string, amount int64) error
	ApplyPenalty(ctx context.Context, id string, amount int64) error
	Block(ctx context.Context, id, reason string, until sql.NullTime) error
	Unblock(ctx context.Context, id string) error
	SpendBalance(ctx context.Context, id string, amount int64) error
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return xcontext.DB(ctx).Create(user).Error
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := xcontext.DB(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	result := &entity.User{}
	if err := xcontext.DB(ctx).Take(result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID string) (*entity.User, error) {
	result := &entity.User{}
	if err := xcontext.DB(ctx).Take(result, "telegram_id=?", telegramID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *userRepository) SetVKID(ctx context.Context, id, vkID string) error {
	return xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", id).
		Update("vk_id", vkID).Error
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	result := &entity.User{}
	if err := xcontext.DB(ctx).Take(result, "referral_code=?", code).Error; err != nil {
		return nil, err
	}

	return result, nil
}

// ApplyPayout credits both balance and the lifetime earned total. It must be
// called in the same transaction as the matching ledger entry.
func (r *userRepository) ApplyPayout(ctx context.Context, id string, amount int64) error {
	tx := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", id).
		Updates(map[string]any{
			"balance":      gorm.Expr("balance + ?", amount),
			"total_earned": gorm.Expr("total_earned + ?", amount),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// ApplyPenalty debits both balance and the lifetime earned total. The caller
// clamps amount so neither can go below zero.
func (r *userRepository) ApplyPenalty(ctx context.Context, id string, amount int64) error {
	tx := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=? AND balance >= ? AND total_earned >= ?", id, amount, amount).
		Updates(map[string]any{
			"balance":      gorm.Expr("balance - ?", amount),
			"total_earned": gorm.Expr("total_earned - ?", amount),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepository) Block(ctx context.Context, id, reason string, until sql.NullTime) error {
	return xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", id).
		Updates(map[string]any{
			"is_blocked":    true,
			"block_reason":  reason,
			"blocked_until": until,
		}).Error
}

func (r *userRepository) Unblock(ctx context.Context, id string) error {
	return xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", id).
		Updates(map[string]any{
			"is_blocked":    false,
			"block_reason":  "",
			"blocked_until": sql.NullTime{},
		}).Error
}

// SpendBalance debits only the balance, leaving the earned total untouched.
// Used when an owner funds a campaign.
func (r *userRepository) SpendBalance(ctx context.Context, id string, amount int64) error {
	tx := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=? AND balance >= ?", id, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
