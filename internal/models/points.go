package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Points is an immutable ledger row crediting a user for an action.
type Points struct {
	PointID  int64  `gorm:"column:point_id;primaryKey;autoIncrement" json:"point_id"`
	ActionID int64  `gorm:"column:action_id;not null;index" json:"action_id"`
	UserID   string `gorm:"column:user_id;not null;index" json:"user_id"`
	Base
}

func (Points) TableName() string { return "points" }

func NewPoints(actionID int64, userID string) (*Points, error) {
	p := &Points{ActionID: actionID, UserID: userID}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Points) Validate() error {
	if p.ActionID == 0 {
		return missing("points", "action_id")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return missing("points", "user_id")
	}
	return nil
}

func (p *Points) BeforeSave(tx *gorm.DB) error { return p.Validate() }

func (p *Points) BeforeUpdate(tx *gorm.DB) error {
	return fmt.Errorf("points %d: %w", p.PointID, ErrAppendOnly)
}
