package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/samwise/internal/models"
)

// translate maps engine errors onto the model's error kinds.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", models.ErrUniquenessViolation, err)
	case isCheckViolation(err):
		return fmt.Errorf("%w: %v", models.ErrDomainViolation, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, models.ErrUniquenessViolation) {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicated key")
}

func isCheckViolation(err error) bool {
	if errors.Is(err, models.ErrDomainViolation) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint")
}

func notFound(entity string, id any, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", entity, id, models.ErrNotFound)
	}
	return err
}

// requireRow enforces an advisory reference when strict references are enabled.
func (s *Store) requireRow(model any, column string, value any, entity, field string) error {
	if !s.strict {
		return nil
	}
	var n int64
	err := s.db.Model(model).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.FieldError{Entity: entity, Field: field, Err: fmt.Errorf("%w: %v", models.ErrReferenceDangling, value)}
	}
	return nil
}
