package entity

import (
	"database/sql"

	"github.com/taskex-lab/backend/pkg/enum"
)

type LedgerEntryType string

var (
	LedgerEarn   = enum.New(LedgerEntryType("earn"))
	LedgerSpend  = enum.New(LedgerEntryType("spend"))
	LedgerAdjust = enum.New(LedgerEntryType("adjust"))
	LedgerRefund = enum.New(LedgerEntryType("refund"))
)

// LedgerEntry is append-only. Corrections are new compensating entries, never
// updates. The sum of a user's entries must equal the user balance at all
// times, so both are written inside the same transaction.
type LedgerEntry struct {
	SnowFlakeBase

	UserID string `gorm:"index:idx_ledger_entries_user_reason"`
	User   User   `gorm:"foreignKey:UserID"`

	Type   LedgerEntryType
	Amount int64

	// Reason doubles as the dedupe key of one-off bonuses.
	Reason string `gorm:"index:idx_ledger_entries_user_reason"`

	CampaignID sql.NullString
}
