package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActionType is the closed set of audit log verbs.
type ActionType string

const (
	ActionCheck   ActionType = "check"
	ActionUncheck ActionType = "uncheck"
	ActionAdd     ActionType = "add"
	ActionDelete  ActionType = "delete"
)

// ActionTypes lists every persisted verb, in declaration order.
var ActionTypes = []ActionType{ActionCheck, ActionUncheck, ActionAdd, ActionDelete}

func (a ActionType) Valid() bool {
	switch a {
	case ActionCheck, ActionUncheck, ActionAdd, ActionDelete:
		return true
	}
	return false
}

// ParseActionType accepts exactly the four verbs.
func ParseActionType(s string) (ActionType, error) {
	a := ActionType(strings.TrimSpace(s))
	if !a.Valid() {
		return "", &FieldError{Entity: "action", Field: "action", Err: fmt.Errorf("%w: %q", ErrDomainViolation, s)}
	}
	return a, nil
}

// ExtraData is the schema-less payload of an action. Writers document its shape:
// check/uncheck carry {"task_id"}, add/delete carry {"task_id"} or {"tag_id"}.
type ExtraData = datatypes.JSONMap

// Action is an append-only audit log row.
type Action struct {
	ActionID  int64      `gorm:"column:action_id;primaryKey;autoIncrement" json:"action_id"`
	UserID    string     `gorm:"column:user_id;not null;index" json:"user_id"`
	Action    ActionType `gorm:"column:action;type:varchar(16);not null;check:action IN ('check','uncheck','add','delete')" json:"action"`
	ExtraData ExtraData  `gorm:"column:extra_data" json:"extra_data,omitempty"`
	Base
}

func (Action) TableName() string { return "action" }

// NewAction builds an audit entry. extra may be nil.
func NewAction(userID string, action string, extra ExtraData) (*Action, error) {
	a := &Action{UserID: userID, Action: ActionType(action), ExtraData: extra}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Action) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return missing("action", "user_id")
	}
	if a.Action == "" {
		return missing("action", "action")
	}
	if _, err := ParseActionType(string(a.Action)); err != nil {
		return err
	}
	return nil
}

func (a *Action) BeforeSave(tx *gorm.DB) error { return a.Validate() }

// BeforeUpdate keeps the log append-only.
func (a *Action) BeforeUpdate(tx *gorm.DB) error {
	return fmt.Errorf("action %d: %w", a.ActionID, ErrAppendOnly)
}

// ExtraInt64 reads a numeric id from an extra_data payload. JSON numbers decode as
// float64, so both representations are accepted.
func ExtraInt64(d ExtraData, key string) (int64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), n == float64(int64(n))
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
