package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/samwise/internal/models"
)

// TagUpdate holds the fields to change on a tag; nil fields are left untouched.
type TagUpdate struct {
	TagName *string
	Color   *string
	InFocus *bool
	Order   *int
}

// CreateTag inserts t. An Order of 0 places the tag after the user's existing tags.
func (s *Store) CreateTag(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.requireRow(&models.User{}, "user_id", t.UserID, "tag", "user_id"); err != nil {
			return err
		}
		if t.Order == 0 {
			next, err := tx.nextOrder(&models.Tag{}, "user_id = ?", t.UserID)
			if err != nil {
				return err
			}
			t.Order = next
		}
		return tx.db.Create(t).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	s.log.Debug().Str("entity", "tag").Int64("tag_id", t.TagID).Str("user_id", t.UserID).Msg("created")
	return t, nil
}

// nextOrder returns one past the largest order among rows matching the condition.
func (s *Store) nextOrder(model any, query string, args ...any) (int, error) {
	var max int
	err := s.db.Model(model).
		Where(query, args...).
		Select(`COALESCE(MAX("order"), 0)`).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// GetTag retrieves a tag by ID
func (s *Store) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	var t models.Tag
	if err := s.conn(ctx).First(&t, "tag_id = ?", id).Error; err != nil {
		return nil, notFound("tag", id, err)
	}
	return &t, nil
}

// ListTags returns a user's tags in display order.
func (s *Store) ListTags(ctx context.Context, userID string, state models.StateFilter) ([]models.Tag, error) {
	q, err := filterState(s.conn(ctx).Where("user_id = ?", userID), "tags", state)
	if err != nil {
		return nil, err
	}
	var tags []models.Tag
	err = q.Order(clause.OrderByColumn{Column: clause.Column{Table: "tags", Name: "order"}}).
		Order("tag_id").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// ListFocusTags returns the active tags the user has in focus.
func (s *Store) ListFocusTags(ctx context.Context, userID string) ([]models.Tag, error) {
	tags, err := s.ListTags(ctx, userID, models.Active)
	if err != nil {
		return nil, err
	}
	focused := tags[:0]
	for _, t := range tags {
		if t.InFocus {
			focused = append(focused, t)
		}
	}
	return focused, nil
}

// UpdateTag applies the non-nil fields of upd.
func (s *Store) UpdateTag(ctx context.Context, id int64, upd TagUpdate) (*models.Tag, error) {
	return s.mutateTag(ctx, id, func(t *models.Tag) {
		if upd.TagName != nil {
			t.TagName = *upd.TagName
		}
		if upd.Color != nil {
			t.Color = *upd.Color
		}
		if upd.InFocus != nil {
			t.InFocus = *upd.InFocus
		}
		if upd.Order != nil {
			t.Order = *upd.Order
		}
	})
}

func (s *Store) SetTagFocus(ctx context.Context, id int64, inFocus bool) (*models.Tag, error) {
	return s.mutateTag(ctx, id, func(t *models.Tag) { t.InFocus = inFocus })
}

// ArchiveTag soft-deletes a tag. With cascade, its tasks are archived in the same transaction.
func (s *Store) ArchiveTag(ctx context.Context, id int64, cascade bool) (*models.Tag, error) {
	var out *models.Tag
	err := s.Transaction(ctx, func(tx *Store) error {
		t, err := tx.mutateTag(ctx, id, (*models.Tag).Archive)
		if err != nil {
			return err
		}
		out = t
		if !cascade {
			return nil
		}
		var tasks []models.Task
		if err := tx.db.Where("tag_id = ? AND archived = ?", id, false).Find(&tasks).Error; err != nil {
			return err
		}
		for i := range tasks {
			tasks[i].Archive()
			if err := tx.db.Save(&tasks[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UnarchiveTag(ctx context.Context, id int64) (*models.Tag, error) {
	return s.mutateTag(ctx, id, (*models.Tag).Unarchive)
}

// ReorderTags renumbers the user's tags 1..n in the given order. Tags not listed keep
// their order; listing a tag owned by someone else fails.
func (s *Store) ReorderTags(ctx context.Context, userID string, ids []int64) error {
	return s.Transaction(ctx, func(tx *Store) error {
		for i, id := range ids {
			t, err := tx.GetTag(ctx, id)
			if err != nil {
				return err
			}
			if t.UserID != userID {
				return fmt.Errorf("tag %d does not belong to user %s: %w", id, userID, models.ErrNotFound)
			}
			t.Order = i + 1
			if err := tx.db.Save(t).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// mutateTag loads, changes and saves a tag atomically.
func (s *Store) mutateTag(ctx context.Context, id int64, fn func(*models.Tag)) (*models.Tag, error) {
	var out *models.Tag
	err := s.Transaction(ctx, func(tx *Store) error {
		t, err := tx.GetTag(ctx, id)
		if err != nil {
			return err
		}
		fn(t)
		if err := tx.db.Save(t).Error; err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("entity", "tag").Int64("tag_id", id).Msg("updated")
	return out, nil
}

// filterState applies a lifecycle filter on the archived column of table.
func filterState(q *gorm.DB, table string, state models.StateFilter) (*gorm.DB, error) {
	switch state {
	case models.Active, models.Archived, models.AnyState:
	default:
		return nil, fmt.Errorf("a lifecycle state filter is required, got %v", state)
	}
	if archived, ok := state.Archived(); ok {
		q = q.Where(clause.Eq{Column: clause.Column{Table: table, Name: "archived"}, Value: archived})
	}
	return q, nil
}
