package db

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/balkashynov/samwise/internal/models"
)

func TestRecordActionRoundTripsExtraData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := models.NewAction("u1", "add", models.ExtraData{"task_id": 5})
	require.NoError(t, err)
	a, err = s.RecordAction(ctx, a)
	require.NoError(t, err)
	assert.NotZero(t, a.ActionID)

	got, err := s.GetAction(ctx, a.ActionID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionAdd, got.Action)

	want, err := json.Marshal(map[string]any{"task_id": 5})
	require.NoError(t, err)
	have, err := json.Marshal(got.ExtraData)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(have))

	id, ok := models.ExtraInt64(got.ExtraData, "task_id")
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)
}

func TestRecordActionNestedExtraData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	extra := models.ExtraData{
		"task_id": 9,
		"before":  map[string]any{"content": "old", "order": 1},
		"after":   map[string]any{"content": "new", "order": 2},
		"tags":    []any{"a", "b"},
	}
	a, err := models.NewAction("u1", "check", extra)
	require.NoError(t, err)
	a, err = s.RecordAction(ctx, a)
	require.NoError(t, err)

	got, err := s.GetAction(ctx, a.ActionID)
	require.NoError(t, err)
	want, _ := json.Marshal(extra)
	have, _ := json.Marshal(got.ExtraData)
	assert.JSONEq(t, string(want), string(have))
}

func TestRecordActionWithoutExtraData(t *testing.T) {
	s := newTestStore(t)
	a, err := models.NewAction("u1", "delete", nil)
	require.NoError(t, err)
	a, err = s.RecordAction(context.Background(), a)
	require.NoError(t, err)

	got, err := s.GetAction(context.Background(), a.ActionID)
	require.NoError(t, err)
	assert.Empty(t, got.ExtraData)
}

func TestRecordActionDomainViolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordAction(ctx, &models.Action{UserID: "u1", Action: "complete"})
	require.ErrorIs(t, err, models.ErrDomainViolation)

	// Through gorm directly, the model hook still rejects it.
	err = s.db.Create(&models.Action{UserID: "u1", Action: "complete"}).Error
	require.ErrorIs(t, err, models.ErrDomainViolation)

	// With hooks skipped, the CHECK constraint rejects it.
	err = s.db.Session(&gorm.Session{SkipHooks: true}).
		Create(&models.Action{UserID: "u1", Action: "complete"}).Error
	require.Error(t, err)
	assert.ErrorIs(t, translate(err), models.ErrDomainViolation)

	actions, err := s.ListActions(ctx, ActionQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestActionsAreAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, err := models.NewAction("u1", "check", models.ExtraData{"task_id": 1})
	require.NoError(t, err)
	a, err = s.RecordAction(ctx, a)
	require.NoError(t, err)

	a.Action = models.ActionUncheck
	assert.ErrorIs(t, s.UpdateAction(ctx, a), models.ErrAppendOnly)

	a.Action = "complete"
	assert.ErrorIs(t, s.UpdateAction(ctx, a), models.ErrDomainViolation)

	a.Action = models.ActionUncheck
	err = s.db.Save(a).Error
	assert.ErrorIs(t, err, models.ErrAppendOnly)

	got, err := s.GetAction(ctx, a.ActionID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionCheck, got.Action)
}

func TestListActions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, verb := range []string{"add", "check", "uncheck", "check"} {
		a, err := models.NewAction("u1", verb, nil)
		require.NoError(t, err)
		_, err = s.RecordAction(ctx, a)
		require.NoError(t, err)
	}
	other, _ := models.NewAction("u2", "add", nil)
	_, err := s.RecordAction(ctx, other)
	require.NoError(t, err)

	all, err := s.ListActions(ctx, ActionQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Greater(t, all[0].ActionID, all[3].ActionID, "newest first")

	checks, err := s.ListActions(ctx, ActionQuery{UserID: "u1", Types: []models.ActionType{models.ActionCheck}})
	require.NoError(t, err)
	assert.Len(t, checks, 2)

	limited, err := s.ListActions(ctx, ActionQuery{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	since, err := s.ListActions(ctx, ActionQuery{UserID: "u1", Since: all[1].TimeCreated})
	require.NoError(t, err)
	assert.Len(t, since, 2)

	until, err := s.ListActions(ctx, ActionQuery{UserID: "u1", Until: all[1].TimeCreated})
	require.NoError(t, err)
	assert.Len(t, until, 2)
}

func TestActionStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, verb := range []string{"add", "add", "check"} {
		a, _ := models.NewAction("u1", verb, nil)
		_, err := s.RecordAction(ctx, a)
		require.NoError(t, err)
	}

	stats, err := s.ActionStats(ctx, "u1", epoch)
	require.NoError(t, err)
	assert.Equal(t, map[models.ActionType]int64{
		models.ActionAdd:     2,
		models.ActionCheck:   1,
		models.ActionUncheck: 0,
		models.ActionDelete:  0,
	}, stats)

	none, err := s.ActionStats(ctx, "u1", epoch.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), none[models.ActionAdd])
}

func TestRecordActionStrictUser(t *testing.T) {
	s := newTestStore(t, strict)
	a, _ := models.NewAction("ghost", "add", nil)
	_, err := s.RecordAction(context.Background(), a)
	assert.ErrorIs(t, err, models.ErrReferenceDangling)
}
