package models

import (
	"time"

	"gorm.io/gorm"
)

// Base carries the creation and modification timestamps shared by every table.
// Both are assigned from the storage clock; values set by callers are discarded.
type Base struct {
	TimeCreated  time.Time `gorm:"column:time_created;not null;autoCreateTime;<-:create" json:"time_created"`
	TimeModified time.Time `gorm:"column:time_modified;not null;autoUpdateTime" json:"time_modified"`
}

// BeforeCreate stamps both columns with the same instant.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	now := tx.NowFunc()
	b.TimeCreated = now
	b.TimeModified = now
	return nil
}
