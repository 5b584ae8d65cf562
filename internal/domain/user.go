package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskex-lab/backend/internal/domain/settlement"
	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserDomain interface {
	GetMe(ctx context.Context, req *model.GetMeRequest) (*model.GetMeResponse, error)
	LinkVK(ctx context.Context, req *model.LinkVKRequest) (*model.LinkVKResponse, error)
	Block(ctx context.Context, req *model.BlockUserRequest) (*model.BlockUserResponse, error)
	Unblock(ctx context.Context, req *model.UnblockUserRequest) (*model.UnblockUserResponse, error)
}

type userDomain struct {
	userRepo repository.UserRepository
}

func NewUserDomain(userRepo repository.UserRepository) UserDomain {
	return &userDomain{userRepo: userRepo}
}

func (d *userDomain) GetMe(
	ctx context.Context, req *model.GetMeRequest,
) (*model.GetMeResponse, error) {
	user, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	resp := model.GetMeResponse(convertUser(ctx, user))
	return &resp, nil
}

func (d *userDomain) LinkVK(
	ctx context.Context, req *model.LinkVKRequest,
) (*model.LinkVKResponse, error) {
	if req.VKID == "" {
		return nil, errorx.New(errorx.BadRequest, "VK id is required")
	}

	if err := d.userRepo.SetVKID(ctx, xcontext.RequestUserID(ctx), req.VKID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot link vk id: %v", err)
		return nil, errorx.Unknown
	}

	return &model.LinkVKResponse{}, nil
}

func (d *userDomain) Block(
	ctx context.Context, req *model.BlockUserRequest,
) (*model.BlockUserResponse, error) {
	if err := d.requireAdmin(ctx); err != nil {
		return nil, err
	}

	var until sql.NullTime
	if req.Until != "" {
		t, err := time.Parse(time.RFC3339, req.Until)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid until timestamp")
		}

		until = sql.NullTime{Time: t, Valid: true}
	}

	if err := d.userRepo.Block(ctx, req.UserID, req.Reason, until); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot block user: %v", err)
		return nil, errorx.Unknown
	}

	return &model.BlockUserResponse{}, nil
}

func (d *userDomain) Unblock(
	ctx context.Context, req *model.UnblockUserRequest,
) (*model.UnblockUserResponse, error) {
	if err := d.requireAdmin(ctx); err != nil {
		return nil, err
	}

	if err := d.userRepo.Unblock(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot unblock user: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UnblockUserResponse{}, nil
}

func (d *userDomain) requireAdmin(ctx context.Context) error {
	user, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get requesting user: %v", err)
		return errorx.Unknown
	}

	if user.Role != entity.RoleAdmin {
		return errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	return nil
}

func convertUser(ctx context.Context, user *entity.User) model.User {
	rank := settlement.RankOf(xcontext.Configs(ctx).Reward, user.TotalEarned)
	blocked := settlement.ResolveBlockState(user, time.Now())

	return model.User{
		ID:           user.ID,
		Name:         user.Name,
		Balance:      user.Balance,
		TotalEarned:  user.TotalEarned,
		Rank:         rank.Name,
		ReferralCode: user.ReferralCode,
		IsBlocked:    blocked.Blocked,
	}
}
