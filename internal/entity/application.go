package entity

import (
	"database/sql"

	"github.com/taskex-lab/backend/pkg/enum"
)

type ApplicationStatus string

var (
	ApplicationPending  = enum.New(ApplicationStatus("pending"))
	ApplicationApproved = enum.New(ApplicationStatus("approved"))
	ApplicationRejected = enum.New(ApplicationStatus("rejected"))
	ApplicationRevoked  = enum.New(ApplicationStatus("revoked"))
)

type Application struct {
	Base

	CampaignID string   `gorm:"uniqueIndex:idx_applications_campaign_applicant"`
	Campaign   Campaign `gorm:"foreignKey:CampaignID"`

	ApplicantID string `gorm:"uniqueIndex:idx_applications_campaign_applicant"`
	Applicant   User   `gorm:"foreignKey:ApplicantID"`

	Status ApplicationStatus

	// ReactionBaseline is the campaign reaction counter observed at apply
	// time. Null when the counter had not been observed yet.
	ReactionBaseline sql.NullInt64

	// Verification state of the membership recheck cooldown.
	VerificationChecks int
	LastVerificationAt sql.NullTime

	ReviewedAt sql.NullTime
}
