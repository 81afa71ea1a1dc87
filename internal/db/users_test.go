package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/samwise/internal/models"
)

func TestCreateUserEmailUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustUser(t, s, "u1", "a@x.com")

	dup, err := models.NewUser("u2", "a@x.com")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, dup)
	require.ErrorIs(t, err, models.ErrUniquenessViolation)
	var fe *models.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "email", fe.Field)

	ok, err := models.NewUser("u2", "b@x.com")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, ok)
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestCreateUserDuplicateID(t *testing.T) {
	s := newTestStore(t)
	mustUser(t, s, "u1", "a@x.com")

	u, _ := models.NewUser("u1", "other@x.com")
	_, err := s.CreateUser(context.Background(), u)
	assert.ErrorIs(t, err, models.ErrUniquenessViolation)
}

func TestUniqueIndexBacksTheCheck(t *testing.T) {
	s := newTestStore(t)
	mustUser(t, s, "u1", "a@x.com")

	// Insert straight through gorm, skipping the service's pre-check.
	err := s.db.Create(&models.User{UserID: "u2", Email: "a@x.com"}).Error
	require.Error(t, err)
	assert.ErrorIs(t, translate(err), models.ErrUniquenessViolation)
}

func TestCreateUserRequiredFields(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(context.Background(), &models.User{UserID: "u1"})
	assert.ErrorIs(t, err, models.ErrRequiredFieldMissing)

	err = s.db.Create(&models.User{Email: "a@x.com"}).Error
	assert.ErrorIs(t, err, models.ErrRequiredFieldMissing)
}

func TestUpdateUserEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := mustUser(t, s, "u1", "a@x.com")
	mustUser(t, s, "u2", "b@x.com")

	_, err := s.UpdateUserEmail(ctx, "u1", "b@x.com")
	require.ErrorIs(t, err, models.ErrUniquenessViolation)

	updated, err := s.UpdateUserEmail(ctx, "u1", "c@x.com")
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", updated.Email)

	got, err := s.GetUserByEmail(ctx, "c@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.TimeCreated.Equal(created.TimeCreated))
	assert.True(t, got.TimeModified.After(got.TimeCreated))

	// Keeping the same address is not a collision with itself.
	_, err = s.UpdateUserEmail(ctx, "u1", "c@x.com")
	assert.NoError(t, err)

	_, err = s.UpdateUserEmail(ctx, "ghost", "d@x.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
