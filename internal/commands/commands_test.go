package commands

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/samwise/internal/config"
	"github.com/balkashynov/samwise/internal/db"
	"github.com/balkashynov/samwise/internal/models"
	"github.com/balkashynov/samwise/internal/tui"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := config.NewForTesting()
	a := newApp(func() (*config.Config, error) { return cfg, nil })
	t.Cleanup(a.close)
	return a
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustRun(t *testing.T, a *app, args ...string) string {
	t.Helper()
	out, err := run(t, a, args...)
	require.NoError(t, err, out)
	return out
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// seed registers user u1 with a Work tag.
func seed(t *testing.T, a *app) {
	t.Helper()
	mustRun(t, a, "user", "add", "u1@example.com", "--id", "u1")
	mustRun(t, a, "--user", "u1", "tag", "add", "Work", "--color", "#ff8800")
}

func TestVersionDoesNotOpenDatabase(t *testing.T) {
	a := newApp(func() (*config.Config, error) { return nil, errors.New("no config") })

	out := mustRun(t, a, "version")
	assert.Contains(t, out, "samwise dev")
	assert.Nil(t, a.store)
}

func TestUserAddGeneratesID(t *testing.T) {
	a := newTestApp(t)

	out := mustRun(t, a, "user", "add", "sam@example.com")
	assert.Contains(t, out, "sam@example.com")

	users, err := a.store.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	_, err = uuid.Parse(users[0].UserID)
	assert.NoError(t, err)
}

func TestUserAddDuplicateEmail(t *testing.T) {
	a := newTestApp(t)
	mustRun(t, a, "user", "add", "sam@example.com", "--id", "a")

	_, err := run(t, a, "user", "add", "sam@example.com", "--id", "b")
	assert.ErrorIs(t, err, models.ErrUniquenessViolation)
}

func TestUserShowAndEmail(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	mustRun(t, a, "--user", "u1", "user", "email", "new@example.com")
	out := mustRun(t, a, "--user", "u1", "user", "show")
	assert.Contains(t, out, "new@example.com")

	_, err := run(t, a, "user", "show", "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCommandsRequireActingUser(t *testing.T) {
	a := newTestApp(t)

	_, err := run(t, a, "tag", "ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user")
}

func TestActingUserFromConfig(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)
	a.cfg.User = "u1"

	out := mustRun(t, a, "tag", "ls")
	assert.Contains(t, out, "#Work")
}

func TestTagLifecycle(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)
	mustRun(t, a, "--user", "u1", "tag", "add", "#Home", "--no-focus")

	out := mustRun(t, a, "--user", "u1", "tag", "ls")
	assert.Contains(t, out, "#Work")
	assert.Contains(t, out, "#Home")

	out = mustRun(t, a, "--user", "u1", "tag", "focus", "home")
	assert.Contains(t, out, "in focus")
	tags, err := a.store.ListFocusTags(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	mustRun(t, a, "--user", "u1", "tag", "edit", "Home", "--name", "House")
	mustRun(t, a, "--user", "u1", "tag", "archive", "House")

	out = mustRun(t, a, "--user", "u1", "tag", "ls")
	assert.NotContains(t, out, "House")
	out = mustRun(t, a, "--user", "u1", "tag", "ls", "--state", "archived")
	assert.Contains(t, out, "#House")

	mustRun(t, a, "--user", "u1", "tag", "unarchive", "house")
	out = mustRun(t, a, "--user", "u1", "tag", "ls")
	assert.Contains(t, out, "#House")
}

func TestTagAddDefaultsColor(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	out := mustRun(t, a, "--user", "u1", "tag", "add", "Home")
	assert.Contains(t, out, "#Home")

	tag, err := resolveTag(context.Background(), a.store, "u1", "Home")
	require.NoError(t, err)
	assert.Equal(t, tui.DefaultTagColor, tag.Color)

	_, err = run(t, a, "--user", "u1", "tag", "edit", "Home", "--color", "")
	assert.ErrorIs(t, err, models.ErrRequiredFieldMissing)
}

func TestTagEditRequiresChange(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	_, err := run(t, a, "--user", "u1", "tag", "edit", "Work")
	assert.Error(t, err)
}

func TestTagReorder(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)
	mustRun(t, a, "--user", "u1", "tag", "add", "Home")
	ctx := context.Background()

	tags, err := a.store.ListTags(ctx, "u1", models.Active)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	work, home := tags[0], tags[1]

	mustRun(t, a, "--user", "u1", "tag", "reorder", itoa(home.TagID), itoa(work.TagID))
	tags, err = a.store.ListTags(ctx, "u1", models.Active)
	require.NoError(t, err)
	assert.Equal(t, "Home", tags[0].TagName)
}

func TestTaskAddParsesInput(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	out := mustRun(t, a, "--user", "u1", "task", "add", "Write report #Work due:3days")
	assert.Contains(t, out, `"Write report"`)

	tasks, err := a.store.ListTasks(context.Background(), db.TaskQuery{UserID: "u1", State: models.Active})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0].Content)
	assert.True(t, tasks[0].EndDate.After(tasks[0].StartDate))

	actions, err := a.store.ListActions(context.Background(), db.ActionQuery{UserID: "u1", Types: []models.ActionType{models.ActionAdd}})
	require.NoError(t, err)
	assert.Len(t, actions, 2, "tag add and task add are both logged")
}

func TestTaskAddNeedsTag(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	_, err := run(t, a, "--user", "u1", "task", "add", "Floating task")
	assert.Error(t, err)

	_, err = run(t, a, "--user", "u1", "task", "add", "Task #Nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTaskCheckAwardsOnePoint(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)
	mustRun(t, a, "--user", "u1", "task", "add", "Ship it", "--tag", "Work")

	out := mustRun(t, a, "--user", "u1", "task", "check", "1")
	assert.Contains(t, out, "+1 point, 1 total")
	out = mustRun(t, a, "--user", "u1", "task", "check", "1")
	assert.Contains(t, out, "already checked")

	out = mustRun(t, a, "--user", "u1", "task", "ls")
	assert.Contains(t, out, "✓ #1")

	mustRun(t, a, "--user", "u1", "task", "uncheck", "1")
	out = mustRun(t, a, "--user", "u1", "points")
	assert.Contains(t, out, "1 point(s)")

	out = mustRun(t, a, "--user", "u1", "stats")
	assert.Contains(t, out, "check    2")
	assert.Contains(t, out, "uncheck  1")
	assert.Contains(t, out, "points   1")

	out = mustRun(t, a, "--user", "u1", "log", "--type", "uncheck")
	assert.Contains(t, out, `{"task_id":1}`)
}

func TestTaskMoveAndArchiveCascade(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)
	mustRun(t, a, "--user", "u1", "task", "add", "Parent #Work")
	mustRun(t, a, "--user", "u1", "task", "add", "Child #Work ^1")
	mustRun(t, a, "--user", "u1", "task", "add", "Grandchild #Work")
	mustRun(t, a, "--user", "u1", "task", "move", "3", "--parent", "2")

	_, err := run(t, a, "--user", "u1", "task", "move", "1", "--parent", "3")
	assert.ErrorIs(t, err, models.ErrCyclicParent)

	out := mustRun(t, a, "--user", "u1", "task", "ls")
	assert.Contains(t, out, "    ○ #3")

	mustRun(t, a, "--user", "u1", "task", "archive", "1")
	out = mustRun(t, a, "--user", "u1", "task", "ls")
	assert.Contains(t, out, "No tasks found")

	mustRun(t, a, "--user", "u1", "task", "unarchive", "3")
	mustRun(t, a, "--user", "u1", "task", "move", "3", "--top")
	task, err := a.store.GetTask(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, task.ParentTask)
	assert.False(t, task.Archived)
}

func TestTaskEdit(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)
	mustRun(t, a, "--user", "u1", "tag", "add", "Home")
	mustRun(t, a, "--user", "u1", "task", "add", "Draft #Work")

	mustRun(t, a, "--user", "u1", "task", "edit", "1", "--content", "Final", "--tag", "Home", "--due", "2w")
	task, err := a.store.GetTask(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Final", task.Content)
	assert.Equal(t, int64(2), task.TagID)

	_, err = run(t, a, "--user", "u1", "task", "edit", "1", "--due", "someday")
	assert.Error(t, err)
}

func TestTasksOfOtherUsersAreHidden(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)
	mustRun(t, a, "--user", "u1", "task", "add", "Mine #Work")
	mustRun(t, a, "user", "add", "u2@example.com", "--id", "u2")

	_, err := run(t, a, "--user", "u2", "task", "check", "1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = run(t, a, "--user", "u2", "tag", "archive", "Work")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInvalidArguments(t *testing.T) {
	a := newTestApp(t)
	seed(t, a)

	_, err := run(t, a, "--user", "u1", "task", "check", "abc")
	assert.Error(t, err)
	_, err = run(t, a, "--user", "u1", "tag", "ls", "--state", "deleted")
	assert.Error(t, err)
	_, err = run(t, a, "--user", "u1", "log", "--type", "Check")
	assert.ErrorIs(t, err, models.ErrDomainViolation)
	_, err = run(t, a, "--user", "u1", "task", "move", "1")
	assert.Error(t, err)
}
