package db

import (
	"context"

	"github.com/balkashynov/samwise/internal/models"
)

// AwardPoints appends a ledger row crediting userID for actionID.
func (s *Store) AwardPoints(ctx context.Context, actionID int64, userID string) (*models.Points, error) {
	p, err := models.NewPoints(actionID, userID)
	if err != nil {
		return nil, err
	}
	err = s.Transaction(ctx, func(tx *Store) error {
		if err := tx.requireRow(&models.Action{}, "action_id", actionID, "points", "action_id"); err != nil {
			return err
		}
		return tx.db.Create(p).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	s.log.Debug().Str("entity", "points").Int64("point_id", p.PointID).Str("user_id", userID).Msg("awarded")
	return p, nil
}

// ListPoints returns a user's ledger, oldest first.
func (s *Store) ListPoints(ctx context.Context, userID string) ([]models.Points, error) {
	var pts []models.Points
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("point_id").Find(&pts).Error; err != nil {
		return nil, err
	}
	return pts, nil
}

// TotalPoints returns the size of a user's ledger.
func (s *Store) TotalPoints(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Points{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
