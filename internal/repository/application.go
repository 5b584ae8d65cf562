package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ApplicationFilter struct {
	CampaignID  string
	ApplicantID string
	Status      entity.ApplicationStatus
}

type ApplicationRepository interface {
	Create(ctx context.Context, application *entity.Application) error
	GetByID(ctx context.Context, id string) (*entity.Application, error)
	Get(ctx context.Context, campaignID, applicantID string) (*entity.Application, error)
	GetList(ctx context.Context, filter ApplicationFilter, offset, limit int) ([]entity.Application, error)
	ApproveByID(ctx context.Context, id string) error
	ResetToPending(ctx context.Context, id string, baseline sql.NullInt64) error
	MarkRevoked(ctx context.Context, id string) error
	MarkRejected(ctx context.Context, id string) error
	UpdateVerification(ctx context.Context, id string, checks int, at time.Time) error
	GetPendingWithBaseline(ctx context.Context, campaignID string, limit int) ([]entity.Application, error)
	GetPendingWithoutBaseline(ctx context.Context, campaignID string, limit int) ([]entity.Application, error)
	GetByApplicantChatAndStatus(
		ctx context.Context,
		applicantID string,
		platform entity.CampaignPlatform,
		chatID string,
		status entity.ApplicationStatus,
	) ([]entity.Application, error)
}

type applicationRepository struct{}

func NewApplicationRepository() ApplicationRepository {
	return &applicationRepository{}
}

func (r *applicationRepository) Create(ctx context.Context, application *entity.Application) error {
	return xcontext.DB(ctx).Create(application).Error
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*entity.Application, error) {
	result := &entity.Application{}
	if err := xcontext.DB(ctx).Take(result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *applicationRepository) Get(
	ctx context.Context, campaignID, applicantID string,
) (*entity.Application, error) {
	result := &entity.Application{}
	err := xcontext.DB(ctx).
		Take(result, "campaign_id=? AND applicant_id=?", campaignID, applicantID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *applicationRepository) GetList(
	ctx context.Context, filter ApplicationFilter, offset, limit int,
) ([]entity.Application, error) {
	result := []entity.Application{}
	tx := xcontext.DB(ctx).
		Offset(offset).
		Limit(limit).
		Order("created_at DESC")

	if filter.CampaignID != "" {
		tx = tx.Where("campaign_id=?", filter.CampaignID)
	}

	if filter.ApplicantID != "" {
		tx = tx.Where("applicant_id=?", filter.ApplicantID)
	}

	if filter.Status != "" {
		tx = tx.Where("status=?", filter.Status)
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

// ApproveByID flips a pending application to approved. The status guard makes
// the transition single-shot under concurrent settlement attempts.
func (r *applicationRepository) ApproveByID(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Model(&entity.Application{}).
		Where("id=? AND status=?", id, entity.ApplicationPending).
		Updates(map[string]any{
			"status":      entity.ApplicationApproved,
			"reviewed_at": sql.NullTime{Time: time.Now(), Valid: true},
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *applicationRepository) ResetToPending(
	ctx context.Context, id string, baseline sql.NullInt64,
) error {
	return xcontext.DB(ctx).Model(&entity.Application{}).
		Where("id=?", id).
		Updates(map[string]any{
			"status":               entity.ApplicationPending,
			"reaction_baseline":    baseline,
			"verification_checks":  0,
			"last_verification_at": sql.NullTime{},
			"reviewed_at":          sql.NullTime{},
		}).Error
}

func (r *applicationRepository) MarkRevoked(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Model(&entity.Application{}).
		Where("id=? AND status=?", id, entity.ApplicationApproved).
		Update("status", entity.ApplicationRevoked)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *applicationRepository) MarkRejected(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Model(&entity.Application{}).
		Where("id=? AND status=?", id, entity.ApplicationPending).
		Updates(map[string]any{
			"status":      entity.ApplicationRejected,
			"reviewed_at": sql.NullTime{Time: time.Now(), Valid: true},
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *applicationRepository) UpdateVerification(
	ctx context.Context, id string, checks int, at time.Time,
) error {
	return xcontext.DB(ctx).Model(&entity.Application{}).
		Where("id=?", id).
		Updates(map[string]any{
			"verification_checks":  checks,
			"last_verification_at": sql.NullTime{Time: at, Valid: true},
		}).Error
}

// GetPendingWithBaseline returns pending applications that recorded a
// reaction baseline, newest baseline first so the applicants most likely to
// have produced the fresh reactions settle first.
func (r *applicationRepository) GetPendingWithBaseline(
	ctx context.Context, campaignID string, limit int,
) ([]entity.Application, error) {
	result := []entity.Application{}
	err := xcontext.DB(ctx).
		Where("campaign_id=? AND status=? AND reaction_baseline IS NOT NULL",
			campaignID, entity.ApplicationPending).
		Order("reaction_baseline DESC, created_at DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *applicationRepository) GetPendingWithoutBaseline(
	ctx context.Context, campaignID string, limit int,
) ([]entity.Application, error) {
	result := []entity.Application{}
	err := xcontext.DB(ctx).
		Where("campaign_id=? AND status=? AND reaction_baseline IS NULL",
			campaignID, entity.ApplicationPending).
		Order("created_at DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *applicationRepository) GetByApplicantChatAndStatus(
	ctx context.Context,
	applicantID string,
	platform entity.CampaignPlatform,
	chatID string,
	status entity.ApplicationStatus,
) ([]entity.Application, error) {
	result := []entity.Application{}
	err := xcontext.DB(ctx).
		Model(&entity.Application{}).
		Select("applications.*").
		Joins("JOIN campaigns ON campaigns.id = applications.campaign_id").
		Where("applications.applicant_id=? AND applications.status=?", applicantID, status).
		Where("campaigns.platform=? AND campaigns.target_chat_id=? AND campaigns.action_type=?",
			platform, chatID, entity.ActionSubscribe).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
