package entity

import (
	"database/sql"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	Base

	Name       string
	TelegramID string `gorm:"unique"`

	// VKID is linked by the user from their profile. VK campaigns cannot be
	// verified for a user until it is set.
	VKID string `gorm:"index"`

	Role string `gorm:"default:USER"`

	// Balance is spendable points. TotalEarned is the lifetime earned total
	// which ranks derive from; it only decreases on an unsubscribe penalty.
	// Both are reconciled against the ledger inside every settlement.
	Balance     int64
	TotalEarned int64

	ReferralCode string `gorm:"unique"`

	IsBlocked    bool
	BlockedUntil sql.NullTime
	BlockReason  string
}
