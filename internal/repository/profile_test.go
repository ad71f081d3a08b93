package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_GetByUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	_, profile := createTestUser(t, db, "alice")

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)
	assert.Equal(t, "alice", got.User.Username)

	_, err = repo.GetByUsername(ctx, "nobody")
	require.Error(t, err)
}

func TestProfileRepository_FollowGraph(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	aliceUser, alice := createTestUser(t, db, "alice")
	_, bob := createTestUser(t, db, "bob")
	_, carol := createTestUser(t, db, "carol")

	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Follow(ctx, carol.ID, bob.ID))
	// following twice is a no-op
	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

	following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	followers, err := repo.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	followingList, err := repo.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, followingList, 1)
	assert.Equal(t, "bob", followingList[0].User.Username)

	// fan-out wants user IDs, not profile IDs
	userIDs, err := repo.FollowerUserIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Contains(t, userIDs, aliceUser.ID)

	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
	following, err = repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestProfileRepository_Favorites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	articleRepo := NewArticleRepository(db)
	ctx := context.Background()

	fanUser, fan := createTestUser(t, db, "fan")
	_, author := createTestUser(t, db, "author")
	article := createTestArticle(t, articleRepo, author, "Loved", "loved")

	require.NoError(t, repo.Favorite(ctx, fan.ID, article.ID))
	require.NoError(t, repo.Favorite(ctx, fan.ID, article.ID))

	favorited, err := repo.IsFavorited(ctx, fan.ID, article.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	userIDs, err := repo.FavoriterUserIDs(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{fanUser.ID}, userIDs)

	require.NoError(t, repo.Unfavorite(ctx, fan.ID, article.ID))
	favorited, err = repo.IsFavorited(ctx, fan.ID, article.ID)
	require.NoError(t, err)
	assert.False(t, favorited)
}

func TestProfileRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	_, profile := createTestUser(t, db, "alice")
	profile.Bio = "writer of things"
	profile.Interests = "golang"
	require.NoError(t, repo.Update(ctx, profile))

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "writer of things", got.Bio)
	assert.Equal(t, "golang", got.Interests)
}
