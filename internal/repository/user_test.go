package repository

import (
	"context"
	"testing"

	"haven/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateWithProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
	require.NoError(t, repo.CreateWithProfile(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Profile, "a user is never observable without a profile")
	assert.Equal(t, user.ID, got.Profile.UserID)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
	require.NoError(t, repo.CreateWithProfile(ctx, first))

	dup := &models.User{Username: "alice", Email: "other@example.com", Password: "hash"}
	err := repo.CreateWithProfile(ctx, dup)
	require.Error(t, err)

	// the failed insert must not leave an orphan profile behind
	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)
}

func TestUserRepository_LookupsReturnNilWhenMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.GetByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = repo.GetByID(ctx, 999)
	require.Error(t, err)
}

func TestUserRepository_ListWantingNotifications(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	optedIn, _ := createTestUser(t, db, "optedin")
	optedOut, _ := createTestUser(t, db, "optedout")
	optedOut.WantsNotifications = false
	require.NoError(t, db.Save(optedOut).Error)
	// opted in but not in the recipient set
	createTestUser(t, db, "uninvolved")

	users, err := repo.ListWantingNotifications(ctx, []uint{optedIn.ID, optedOut.ID})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, optedIn.ID, users[0].ID)

	users, err = repo.ListWantingNotifications(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}
