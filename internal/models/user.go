package models

import (
	"strings"

	"gorm.io/gorm"
)

// User is identified by an id issued outside this system (e.g. an auth provider).
type User struct {
	UserID string `gorm:"column:user_id;primaryKey" json:"user_id"`
	Email  string `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Base
}

func (User) TableName() string { return "users" }

// NewUser builds a user; both fields are required.
func NewUser(userID, email string) (*User, error) {
	u := &User{UserID: userID, Email: email}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.UserID) == "" {
		return missing("user", "user_id")
	}
	if strings.TrimSpace(u.Email) == "" {
		return missing("user", "email")
	}
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) error { return u.Validate() }
