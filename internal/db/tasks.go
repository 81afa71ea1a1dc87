package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/balkashynov/samwise/internal/models"
)

// TaskQuery selects tasks. State is mandatory; the other fields narrow the result
// when set. TopLevel restricts to tasks without a parent.
type TaskQuery struct {
	UserID     string
	TagID      int64
	ParentTask *int64
	TopLevel   bool
	State      models.StateFilter
}

// TaskUpdate holds the fields to change on a task; nil fields are left untouched.
type TaskUpdate struct {
	Content   *string
	StartDate *time.Time
	EndDate   *time.Time
	TagID     *int64
	Order     *int
}

// CreateTask inserts t. An Order of 0 places the task after its siblings.
func (s *Store) CreateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.requireRow(&models.Tag{}, "tag_id", t.TagID, "task", "tag_id"); err != nil {
			return err
		}
		if t.ParentTask != nil {
			if err := tx.requireRow(&models.Task{}, "task_id", *t.ParentTask, "task", "parent_task"); err != nil {
				return err
			}
		}
		if t.Order == 0 {
			var next int
			var err error
			if t.ParentTask != nil {
				next, err = tx.nextOrder(&models.Task{}, "parent_task = ?", *t.ParentTask)
			} else {
				next, err = tx.nextOrder(&models.Task{}, "tag_id = ? AND parent_task IS NULL", t.TagID)
			}
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
	s.log.Debug().Str("entity", "task").Int64("task_id", t.TaskID).Int64("tag_id", t.TagID).Msg("created")
	return t, nil
}

// GetTask retrieves a task by ID
func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	var t models.Task
	if err := s.conn(ctx).First(&t, "task_id = ?", id).Error; err != nil {
		return nil, notFound("task", id, err)
	}
	return &t, nil
}

// ListTasks returns tasks matching q in display order.
func (s *Store) ListTasks(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	stmt, err := filterState(s.conn(ctx).Model(&models.Task{}), "tasks", q.State)
	if err != nil {
		return nil, err
	}
	if q.UserID != "" {
		stmt = stmt.Joins("JOIN tags ON tags.tag_id = tasks.tag_id").Where("tags.user_id = ?", q.UserID)
	}
	if q.TagID != 0 {
		stmt = stmt.Where("tasks.tag_id = ?", q.TagID)
	}
	if q.ParentTask != nil {
		stmt = stmt.Where("tasks.parent_task = ?", *q.ParentTask)
	} else if q.TopLevel {
		stmt = stmt.Where("tasks.parent_task IS NULL")
	}

	var tasks []models.Task
	err = stmt.Select("tasks.*").
		Order(clause.OrderByColumn{Column: clause.Column{Table: "tasks", Name: "order"}}).
		Order("tasks.task_id").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListSubtasks returns the direct children of a task.
func (s *Store) ListSubtasks(ctx context.Context, parentID int64, state models.StateFilter) ([]models.Task, error) {
	return s.ListTasks(ctx, TaskQuery{ParentTask: &parentID, State: state})
}

// UpdateTask applies the non-nil fields of upd.
func (s *Store) UpdateTask(ctx context.Context, id int64, upd TaskUpdate) (*models.Task, error) {
	if upd.TagID != nil {
		if err := s.requireRow(&models.Tag{}, "tag_id", *upd.TagID, "task", "tag_id"); err != nil {
			return nil, err
		}
	}
	return s.mutateTask(ctx, id, func(t *models.Task) error {
		if upd.Content != nil {
			t.Content = *upd.Content
		}
		if upd.StartDate != nil {
			t.StartDate = *upd.StartDate
		}
		if upd.EndDate != nil {
			t.EndDate = *upd.EndDate
		}
		if upd.TagID != nil {
			t.TagID = *upd.TagID
		}
		if upd.Order != nil {
			t.Order = *upd.Order
		}
		return nil
	})
}

// SetParentTask moves a task under parent, or to the top level when parent is nil.
// A parent chain leading back to the task fails with ErrCyclicParent.
func (s *Store) SetParentTask(ctx context.Context, id int64, parent *int64) (*models.Task, error) {
	var out *models.Task
	err := s.Transaction(ctx, func(tx *Store) error {
		if parent != nil {
			if err := tx.requireRow(&models.Task{}, "task_id", *parent, "task", "parent_task"); err != nil {
				return err
			}
			if err := tx.checkAncestry(ctx, id, *parent); err != nil {
				return err
			}
		}
		t, err := tx.mutateTask(ctx, id, func(t *models.Task) error {
			t.ParentTask = parent
			return nil
		})
		out = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkAncestry walks up from parent and fails if it reaches id. Missing parents end the walk.
func (s *Store) checkAncestry(ctx context.Context, id, parent int64) error {
	seen := map[int64]bool{}
	for cur := &parent; cur != nil; {
		if *cur == id {
			return fmt.Errorf("task %d under %d: %w", id, parent, models.ErrCyclicParent)
		}
		if seen[*cur] {
			return nil
		}
		seen[*cur] = true
		var t models.Task
		err := s.conn(ctx).Select("task_id", "parent_task").Limit(1).Find(&t, "task_id = ?", *cur).Error
		if err != nil {
			return err
		}
		if t.TaskID == 0 {
			return nil
		}
		cur = t.ParentTask
	}
	return nil
}

// ArchiveTask soft-deletes a task. With cascade, all descendants are archived too.
func (s *Store) ArchiveTask(ctx context.Context, id int64, cascade bool) (*models.Task, error) {
	var out *models.Task
	err := s.Transaction(ctx, func(tx *Store) error {
		t, err := tx.mutateTask(ctx, id, func(t *models.Task) error {
			t.Archive()
			return nil
		})
		if err != nil {
			return err
		}
		out = t
		if !cascade {
			return nil
		}
		queue := []int64{id}
		seen := map[int64]bool{id: true}
		for len(queue) > 0 {
			parent := queue[0]
			queue = queue[1:]
			var children []models.Task
			if err := tx.db.Where("parent_task = ?", parent).Find(&children).Error; err != nil {
				return err
			}
			for i := range children {
				c := &children[i]
				if seen[c.TaskID] {
					continue
				}
				seen[c.TaskID] = true
				queue = append(queue, c.TaskID)
				if c.Archived {
					continue
				}
				c.Archive()
				if err := tx.db.Save(c).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UnarchiveTask(ctx context.Context, id int64) (*models.Task, error) {
	return s.mutateTask(ctx, id, func(t *models.Task) error {
		t.Unarchive()
		return nil
	})
}

// ReorderTasks renumbers the given tasks 1..n in order.
func (s *Store) ReorderTasks(ctx context.Context, ids []int64) error {
	return s.Transaction(ctx, func(tx *Store) error {
		for i, id := range ids {
			order := i + 1
			if _, err := tx.mutateTask(ctx, id, func(t *models.Task) error {
				t.Order = order
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// mutateTask loads, changes and saves a task atomically.
func (s *Store) mutateTask(ctx context.Context, id int64, fn func(*models.Task) error) (*models.Task, error) {
	var out *models.Task
	err := s.Transaction(ctx, func(tx *Store) error {
		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		if err := tx.db.Save(t).Error; err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("entity", "task").Int64("task_id", id).Msg("updated")
	return out, nil
}
