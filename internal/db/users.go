package db

import (
	"context"
	"fmt"

	"github.com/balkashynov/samwise/internal/models"
)

// CreateUser inserts u. A duplicate user_id or email fails with ErrUniquenessViolation.
func (s *Store) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.ensureUnique("user_id", u.UserID, ""); err != nil {
			return err
		}
		if err := tx.ensureUnique("email", u.Email, ""); err != nil {
			return err
		}
		return tx.db.Create(u).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	s.log.Debug().Str("entity", "user").Str("user_id", u.UserID).Msg("created")
	return u, nil
}

// ensureUnique fails when another user (other than exceptID) holds value in column.
func (s *Store) ensureUnique(column, value, exceptID string) error {
	q := s.db.Model(&models.User{}).Where(column+" = ?", value)
	if exceptID != "" {
		q = q.Where("user_id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &models.FieldError{Entity: "user", Field: column, Err: fmt.Errorf("%w: %q already exists", models.ErrUniquenessViolation, value)}
	}
	return nil
}

// GetUser retrieves a user by id
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		return nil, notFound("user", userID, err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, notFound("user", email, err)
	}
	return &u, nil
}

// ListUsers returns every user ordered by id
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.conn(ctx).Order("user_id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserEmail changes a user's email, keeping emails unique.
func (s *Store) UpdateUserEmail(ctx context.Context, userID, email string) (*models.User, error) {
	var out *models.User
	err := s.Transaction(ctx, func(tx *Store) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.ensureUnique("email", email, userID); err != nil {
			return err
		}
		u.Email = email
		if err := tx.db.Save(u).Error; err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
