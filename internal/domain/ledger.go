package domain

import (
	"context"
	"errors"
	"time"

	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type LedgerDomain interface {
	GetMyLedger(ctx context.Context, req *model.GetMyLedgerRequest) (*model.GetMyLedgerResponse, error)
}

type ledgerDomain struct {
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
}

func NewLedgerDomain(
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
) LedgerDomain {
	return &ledgerDomain{userRepo: userRepo, ledgerRepo: ledgerRepo}
}

func (d *ledgerDomain) GetMyLedger(
	ctx context.Context, req *model.GetMyLedgerRequest,
) (*model.GetMyLedgerResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	entries, err := d.ledgerRepo.GetList(ctx, repository.LedgerFilter{UserID: userID},
		req.Offset, defaultLimit(req.Limit))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list ledger entries: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetMyLedgerResponse{Balance: user.Balance}
	for _, entry := range entries {
		record := model.LedgerEntry{
			ID:        entry.ID,
			Type:      string(entry.Type),
			Amount:    entry.Amount,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		}
		if entry.CampaignID.Valid {
			record.CampaignID = entry.CampaignID.String
		}

		resp.Entries = append(resp.Entries, record)
	}

	return resp, nil
}
