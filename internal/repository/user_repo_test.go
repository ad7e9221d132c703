package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dassyor/internal/model"
)

func TestCreateAndFindUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	CleanupTestDB(t, GetTestDB())

	ctx := context.Background()
	repo := NewUserRepository(GetTestDB())

	token := "confirm-token"
	expiry := time.Now().Add(48 * time.Hour)
	u := &model.User{
		ID:                           uuid.New(),
		Username:                     "founder",
		Email:                        "founder@example.com",
		EmailConfirmationToken:       &token,
		EmailConfirmationTokenExpiry: &expiry,
		Role:                         model.RoleClient,
		PasswordHash:                 "hash",
	}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	byEmail, err := repo.FindByEmail(ctx, "founder@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.False(t, byEmail.IsEmailConfirmed)

	byToken, err := repo.FindByConfirmationToken(ctx, "confirm-token")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byToken.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestConfirmEmailClearsToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	CleanupTestDB(t, GetTestDB())

	ctx := context.Background()
	repo := NewUserRepository(GetTestDB())

	token := "confirm-token"
	expiry := time.Now().Add(48 * time.Hour)
	u := &model.User{
		ID:                           uuid.New(),
		Username:                     "founder",
		Email:                        "founder@example.com",
		EmailConfirmationToken:       &token,
		EmailConfirmationTokenExpiry: &expiry,
		Role:                         model.RoleClient,
		PasswordHash:                 "hash",
	}
	require.NoError(t, repo.CreateUser(ctx, u))
	require.NoError(t, repo.ConfirmEmail(ctx, u.ID))

	confirmed, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, confirmed.IsEmailConfirmed)
	assert.Nil(t, confirmed.EmailConfirmationToken)
	assert.NotNil(t, confirmed.EmailConfirmedAt)

	// The spent token no longer resolves.
	_, err = repo.FindByConfirmationToken(ctx, "confirm-token")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestResetPasswordClearsResetToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	CleanupTestDB(t, GetTestDB())

	ctx := context.Background()
	repo := NewUserRepository(GetTestDB())
	u := seedUser(t, "founder")

	require.NoError(t, repo.SetPasswordResetToken(ctx, u.ID, "reset-token", time.Now().Add(2*time.Hour)))

	pending, err := repo.FindByPasswordResetToken(ctx, "reset-token")
	require.NoError(t, err)
	assert.Equal(t, u.ID, pending.ID)

	require.NoError(t, repo.ResetPassword(ctx, u.ID, "newhash"))

	updated, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", updated.PasswordHash)
	assert.Nil(t, updated.PasswordResetToken)

	_, err = repo.FindByPasswordResetToken(ctx, "reset-token")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestDeleteUserRemovesRow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	CleanupTestDB(t, GetTestDB())

	ctx := context.Background()
	repo := NewUserRepository(GetTestDB())
	u := seedUser(t, "ghost")

	require.NoError(t, repo.DeleteUser(ctx, u.ID))

	_, err := repo.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
