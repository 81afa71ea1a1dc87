package db

import (
	"context"
	"fmt"
	"time"

	"github.com/balkashynov/samwise/internal/models"
)

// ActionQuery filters the action log. Zero fields do not constrain.
type ActionQuery struct {
	UserID string
	Types  []models.ActionType
	Since  time.Time
	Until  time.Time
	Limit  int
}

// RecordAction appends an entry to the action log.
func (s *Store) RecordAction(ctx context.Context, a *models.Action) (*models.Action, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.requireRow(&models.User{}, "user_id", a.UserID, "action", "user_id"); err != nil {
			return err
		}
		return tx.db.Create(a).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	s.log.Debug().Str("entity", "action").Int64("action_id", a.ActionID).Str("action", string(a.Action)).Msg("recorded")
	return a, nil
}

// UpdateAction always fails: the log is append-only. An out-of-domain verb is
// reported as ErrDomainViolation before the append-only rule applies.
func (s *Store) UpdateAction(ctx context.Context, a *models.Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return fmt.Errorf("action %d: %w", a.ActionID, models.ErrAppendOnly)
}

// GetAction retrieves an action by ID
func (s *Store) GetAction(ctx context.Context, id int64) (*models.Action, error) {
	var a models.Action
	if err := s.conn(ctx).First(&a, "action_id = ?", id).Error; err != nil {
		return nil, notFound("action", id, err)
	}
	return &a, nil
}

// ListActions returns matching actions, newest first.
func (s *Store) ListActions(ctx context.Context, q ActionQuery) ([]models.Action, error) {
	stmt := s.conn(ctx).Model(&models.Action{})
	if q.UserID != "" {
		stmt = stmt.Where("user_id = ?", q.UserID)
	}
	if len(q.Types) > 0 {
		stmt = stmt.Where("action IN ?", q.Types)
	}
	if !q.Since.IsZero() {
		stmt = stmt.Where("time_created >= ?", q.Since.UTC())
	}
	if !q.Until.IsZero() {
		stmt = stmt.Where("time_created < ?", q.Until.UTC())
	}
	if q.Limit > 0 {
		stmt = stmt.Limit(q.Limit)
	}
	var actions []models.Action
	if err := stmt.Order("action_id DESC").Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

// ActionStats counts a user's actions per verb since the given time. Every verb is present.
func (s *Store) ActionStats(ctx context.Context, userID string, since time.Time) (map[models.ActionType]int64, error) {
	stmt := s.conn(ctx).Model(&models.Action{}).Where("user_id = ?", userID)
	if !since.IsZero() {
		stmt = stmt.Where("time_created >= ?", since.UTC())
	}
	var rows []struct {
		Action models.ActionType
		N      int64
	}
	if err := stmt.Select("action, COUNT(*) AS n").Group("action").Scan(&rows).Error; err != nil {
		return nil, err
	}
	stats := make(map[models.ActionType]int64, len(models.ActionTypes))
	for _, a := range models.ActionTypes {
		stats[a] = 0
	}
	for _, r := range rows {
		stats[r.Action] = r.N
	}
	return stats, nil
}
