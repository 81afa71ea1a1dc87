package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/samwise/internal/models"
)

func TestCheckTaskAwardsOncePerCompletion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tag := mustTag(t, s, "u1", "Work")
	task := mustTask(t, s, tag.TagID, "write")

	res, err := s.CheckTask(ctx, "u1", task.TaskID)
	require.NoError(t, err)
	require.NotNil(t, res.Points)
	assert.Equal(t, res.Action.ActionID, res.Points.ActionID)
	assert.Equal(t, models.ActionCheck, res.Action.Action)

	checked, err := s.IsTaskChecked(ctx, "u1", task.TaskID)
	require.NoError(t, err)
	assert.True(t, checked)

	again, err := s.CheckTask(ctx, "u1", task.TaskID)
	require.NoError(t, err)
	assert.Nil(t, again.Points, "already checked")

	_, err = s.UncheckTask(ctx, "u1", task.TaskID)
	require.NoError(t, err)
	checked, err = s.IsTaskChecked(ctx, "u1", task.TaskID)
	require.NoError(t, err)
	assert.False(t, checked)

	total, err := s.TotalPoints(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "unchecking keeps the ledger")

	_, err = s.CheckTask(ctx, "u1", task.TaskID)
	require.NoError(t, err)
	total, err = s.TotalPoints(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestCheckMissingTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CheckTask(ctx, "u1", 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.UncheckTask(ctx, "u1", 404)
	assert.True(t, IsNotFound(err))

	actions, err := s.ListActions(ctx, ActionQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestCheckedTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tag := mustTag(t, s, "u1", "Work")
	a := mustTask(t, s, tag.TagID, "a")
	b := mustTask(t, s, tag.TagID, "b")
	c := mustTask(t, s, tag.TagID, "c")

	_, err := s.CheckTask(ctx, "u1", a.TaskID)
	require.NoError(t, err)
	_, err = s.CheckTask(ctx, "u1", b.TaskID)
	require.NoError(t, err)
	_, err = s.UncheckTask(ctx, "u1", b.TaskID)
	require.NoError(t, err)

	checked, err := s.CheckedTasks(ctx, "u1", []int64{a.TaskID, b.TaskID, c.TaskID})
	require.NoError(t, err)
	assert.Len(t, checked, 3)
	assert.True(t, checked[a.TaskID])
	assert.False(t, checked[b.TaskID])
	assert.False(t, checked[c.TaskID])

	checked, err = s.CheckedTasks(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, checked)
}

func TestIsTaskCheckedMatchesOnlyThatTaskAndUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tag := mustTag(t, s, "u1", "Work")
	a := mustTask(t, s, tag.TagID, "a")
	b := mustTask(t, s, tag.TagID, "b")

	_, err := s.CheckTask(ctx, "u1", a.TaskID)
	require.NoError(t, err)
	_, err = s.CheckTask(ctx, "u2", b.TaskID)
	require.NoError(t, err)
	// A later uncheck of another task must not hide a's check.
	_, err = s.UncheckTask(ctx, "u1", b.TaskID)
	require.NoError(t, err)

	checked, err := s.IsTaskChecked(ctx, "u1", a.TaskID)
	require.NoError(t, err)
	assert.True(t, checked)

	checked, err = s.IsTaskChecked(ctx, "u1", b.TaskID)
	require.NoError(t, err)
	assert.False(t, checked, "u2's check does not count for u1")

	checked, err = s.IsTaskChecked(ctx, "u2", b.TaskID)
	require.NoError(t, err)
	assert.True(t, checked, "u1's uncheck does not count for u2")

	checked, err = s.IsTaskChecked(ctx, "u1", 404)
	require.NoError(t, err)
	assert.False(t, checked)
}

func TestAddAndDeleteLogActions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, err := models.NewTag("u1", "Work", "#f00", 0)
	require.NoError(t, err)
	tag, err = s.AddTag(ctx, tag)
	require.NoError(t, err)

	task, err := models.NewTask("write", epoch, epoch, tag.TagID, 0)
	require.NoError(t, err)
	task, err = s.AddTask(ctx, "u1", task)
	require.NoError(t, err)
	sub := mustTask(t, s, tag.TagID, "outline", models.WithParentTask(task.TaskID))

	_, err = s.DeleteTask(ctx, "u1", task.TaskID)
	require.NoError(t, err)
	gotSub, err := s.GetTask(ctx, sub.TaskID)
	require.NoError(t, err)
	assert.True(t, gotSub.Archived)

	_, err = s.DeleteTag(ctx, "u1", tag.TagID)
	require.NoError(t, err)

	actions, err := s.ListActions(ctx, ActionQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, actions, 4)
	verbs := []models.ActionType{actions[3].Action, actions[2].Action, actions[1].Action, actions[0].Action}
	assert.Equal(t, []models.ActionType{models.ActionAdd, models.ActionAdd, models.ActionDelete, models.ActionDelete}, verbs)

	id, ok := models.ExtraInt64(actions[2].ExtraData, "task_id")
	require.True(t, ok)
	assert.Equal(t, task.TaskID, id)
}

func TestAddTaskRollsBackOnInvalidUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tag := mustTag(t, s, "u1", "Work")

	task, err := models.NewTask("write", epoch, epoch, tag.TagID, 0)
	require.NoError(t, err)
	_, err = s.AddTask(ctx, "", task)
	require.ErrorIs(t, err, models.ErrRequiredFieldMissing)

	tasks, err := s.ListTasks(ctx, TaskQuery{TagID: tag.TagID, State: models.AnyState})
	require.NoError(t, err)
	assert.Empty(t, tasks, "task insert rolled back with the failed log entry")
}
