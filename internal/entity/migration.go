package entity

import "time"

// Migration records an applied schema version.
type Migration struct {
	Version   string `gorm:"primaryKey"`
	CreatedAt time.Time
}
