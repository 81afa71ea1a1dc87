package models

import (
	"strings"

	"gorm.io/gorm"
)

// Tag groups a user's tasks. UserID is an advisory owner reference; no foreign key is declared.
type Tag struct {
	TagID    int64  `gorm:"column:tag_id;primaryKey;autoIncrement" json:"tag_id"`
	UserID   string `gorm:"column:user_id;not null;index" json:"user_id"`
	TagName  string `gorm:"column:tag_name;not null" json:"tag_name"`
	InFocus  bool   `gorm:"column:in_focus;not null" json:"in_focus"`
	Color    string `gorm:"column:color;not null" json:"color"`
	Order    int    `gorm:"column:order;not null" json:"order"`
	Archived bool   `gorm:"column:archived;not null" json:"archived"`
	Base
}

func (Tag) TableName() string { return "tags" }

// TagOption overrides a defaulted Tag field at construction.
type TagOption func(*Tag)

func WithInFocus(inFocus bool) TagOption {
	return func(t *Tag) { t.InFocus = inFocus }
}

func WithTagArchived(archived bool) TagOption {
	return func(t *Tag) { t.Archived = archived }
}

// NewTag builds a tag with in_focus=true and archived=false unless overridden.
func NewTag(userID, name, color string, order int, opts ...TagOption) (*Tag, error) {
	t := &Tag{
		UserID:  userID,
		TagName: name,
		Color:   color,
		Order:   order,
		InFocus: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tag) Validate() error {
	switch {
	case strings.TrimSpace(t.UserID) == "":
		return missing("tag", "user_id")
	case strings.TrimSpace(t.TagName) == "":
		return missing("tag", "tag_name")
	case strings.TrimSpace(t.Color) == "":
		return missing("tag", "color")
	}
	return nil
}

func (t *Tag) BeforeSave(tx *gorm.DB) error { return t.Validate() }

func (t *Tag) State() Lifecycle { return lifecycleOf(t.Archived) }
func (t *Tag) Archive()         { t.Archived = true }
func (t *Tag) Unarchive()       { t.Archived = false }
