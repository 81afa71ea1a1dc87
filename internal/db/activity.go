package db

import (
	"context"
	"errors"

	"gorm.io/datatypes"

	"github.com/balkashynov/samwise/internal/models"
)

// Composite operations: each pairs an entity write with its action log entry
// (and, for checks, a points award) inside one transaction.

// CheckResult is the outcome of CheckTask. Points is nil when nothing was awarded.
type CheckResult struct {
	Task   *models.Task
	Action *models.Action
	Points *models.Points
}

// AddTag creates a tag and logs an "add" action for it.
func (s *Store) AddTag(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	err := s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.CreateTag(ctx, t); err != nil {
			return err
		}
		_, err := tx.logAction(ctx, t.UserID, models.ActionAdd, models.ExtraData{"tag_id": t.TagID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTag archives a tag with its tasks and logs a "delete" action.
func (s *Store) DeleteTag(ctx context.Context, userID string, tagID int64) (*models.Tag, error) {
	var out *models.Tag
	err := s.Transaction(ctx, func(tx *Store) error {
		t, err := tx.ArchiveTag(ctx, tagID, true)
		if err != nil {
			return err
		}
		out = t
		_, err = tx.logAction(ctx, userID, models.ActionDelete, models.ExtraData{"tag_id": tagID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddTask creates a task and logs an "add" action for it.
func (s *Store) AddTask(ctx context.Context, userID string, t *models.Task) (*models.Task, error) {
	err := s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.CreateTask(ctx, t); err != nil {
			return err
		}
		extra := models.ExtraData{"task_id": t.TaskID, "tag_id": t.TagID}
		if t.ParentTask != nil {
			extra["parent_task"] = *t.ParentTask
		}
		_, err := tx.logAction(ctx, userID, models.ActionAdd, extra)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTask archives a task with its subtasks and logs a "delete" action.
func (s *Store) DeleteTask(ctx context.Context, userID string, taskID int64) (*models.Task, error) {
	var out *models.Task
	err := s.Transaction(ctx, func(tx *Store) error {
		t, err := tx.ArchiveTask(ctx, taskID, true)
		if err != nil {
			return err
		}
		out = t
		_, err = tx.logAction(ctx, userID, models.ActionDelete, models.ExtraData{"task_id": taskID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckTask logs a "check" for the task and awards one point, unless the task is
// already checked, in which case only the action is logged.
func (s *Store) CheckTask(ctx context.Context, userID string, taskID int64) (*CheckResult, error) {
	res := &CheckResult{}
	err := s.Transaction(ctx, func(tx *Store) error {
		t, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		res.Task = t
		checked, err := tx.IsTaskChecked(ctx, userID, taskID)
		if err != nil {
			return err
		}
		a, err := tx.logAction(ctx, userID, models.ActionCheck, models.ExtraData{"task_id": taskID})
		if err != nil {
			return err
		}
		res.Action = a
		if checked {
			return nil
		}
		p, err := tx.AwardPoints(ctx, a.ActionID, userID)
		res.Points = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UncheckTask logs an "uncheck". Points already awarded stay in the ledger.
func (s *Store) UncheckTask(ctx context.Context, userID string, taskID int64) (*models.Action, error) {
	var out *models.Action
	err := s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.GetTask(ctx, taskID); err != nil {
			return err
		}
		a, err := tx.logAction(ctx, userID, models.ActionUncheck, models.ExtraData{"task_id": taskID})
		out = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IsTaskChecked derives a task's check state from the user's latest check/uncheck of it.
func (s *Store) IsTaskChecked(ctx context.Context, userID string, taskID int64) (bool, error) {
	var latest []models.Action
	err := s.conn(ctx).
		Where("user_id = ? AND action IN ?", userID, []models.ActionType{models.ActionCheck, models.ActionUncheck}).
		Where(datatypes.JSONQuery("extra_data").Equals(taskID, "task_id")).
		Order("action_id DESC").
		Limit(1).
		Find(&latest).Error
	if err != nil {
		return false, err
	}
	return len(latest) == 1 && latest[0].Action == models.ActionCheck, nil
}

// CheckedTasks returns which of taskIDs are currently checked by the user.
func (s *Store) CheckedTasks(ctx context.Context, userID string, taskIDs []int64) (map[int64]bool, error) {
	checked := make(map[int64]bool, len(taskIDs))
	for _, id := range taskIDs {
		if _, seen := checked[id]; seen {
			continue
		}
		ok, err := s.IsTaskChecked(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		checked[id] = ok
	}
	return checked, nil
}

func (s *Store) logAction(ctx context.Context, userID string, verb models.ActionType, extra models.ExtraData) (*models.Action, error) {
	a, err := models.NewAction(userID, string(verb), extra)
	if err != nil {
		return nil, err
	}
	return s.RecordAction(ctx, a)
}

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool { return errors.Is(err, models.ErrNotFound) }
