package models

import "time"

// GroupSetting is one group's auto-delete configuration. At most one record
// exists per GroupID; DeleteAfter is stored in whole seconds, 0 meaning the
// feature is disabled for that group.
type GroupSetting struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	GroupID     int64 `gorm:"uniqueIndex"`
	DeleteAfter int64 // seconds
}
