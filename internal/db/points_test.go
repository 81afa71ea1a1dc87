package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/samwise/internal/models"
)

func TestAwardPointsLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := models.NewAction("u1", "check", models.ExtraData{"task_id": 1})
	a, err := s.RecordAction(ctx, a)
	require.NoError(t, err)

	p1, err := s.AwardPoints(ctx, a.ActionID, "u1")
	require.NoError(t, err)
	p2, err := s.AwardPoints(ctx, a.ActionID, "u1")
	require.NoError(t, err)
	assert.Less(t, p1.PointID, p2.PointID)

	total, err := s.TotalPoints(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	ledger, err := s.ListPoints(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, a.ActionID, ledger[0].ActionID)

	zero, err := s.TotalPoints(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, zero)
}

func TestPointsAreImmutable(t *testing.T) {
	s := newTestStore(t)
	p, err := s.AwardPoints(context.Background(), 1, "u1")
	require.NoError(t, err)

	p.UserID = "u2"
	assert.ErrorIs(t, s.db.Save(p).Error, models.ErrAppendOnly)
}

func TestAwardPointsReferences(t *testing.T) {
	ctx := context.Background()

	_, err := newTestStore(t).AwardPoints(ctx, 0, "u1")
	assert.ErrorIs(t, err, models.ErrRequiredFieldMissing)

	_, err = newTestStore(t).AwardPoints(ctx, 42, "u1")
	assert.NoError(t, err, "references are advisory by default")

	_, err = newTestStore(t, strict).AwardPoints(ctx, 42, "u1")
	assert.ErrorIs(t, err, models.ErrReferenceDangling)
}
