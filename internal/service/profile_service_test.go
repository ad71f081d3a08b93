package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_FollowLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, _ := env.createUser(t, "alice")
	env.createUser(t, "bob")

	view, err := env.profiles.Follow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", view.Username)
	assert.True(t, view.Following)

	// following again is harmless
	view, err = env.profiles.Follow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, view.Following)

	followers, err := env.profiles.Followers(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	following, err := env.profiles.Following(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0].Username)

	view, err = env.profiles.Unfollow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, view.Following)

	followers, err = env.profiles.Followers(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestProfileService_SelfFollowRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, _ := env.createUser(t, "alice")

	_, err := env.profiles.Follow(ctx, alice.ID, "alice")
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))

	_, err = env.profiles.Unfollow(ctx, alice.ID, "alice")
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
}

func TestProfileService_FollowingFlagPerViewer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, _ := env.createUser(t, "alice")
	bob, _ := env.createUser(t, "bob")
	env.createUser(t, "carol")

	_, err := env.profiles.Follow(ctx, alice.ID, "carol")
	require.NoError(t, err)

	view, err := env.profiles.GetProfile(ctx, "carol", alice.ID)
	require.NoError(t, err)
	assert.True(t, view.Following)

	view, err = env.profiles.GetProfile(ctx, "carol", bob.ID)
	require.NoError(t, err)
	assert.False(t, view.Following)

	// anonymous viewers always see false
	view, err = env.profiles.GetProfile(ctx, "carol", 0)
	require.NoError(t, err)
	assert.False(t, view.Following)

	_, err = env.profiles.GetProfile(ctx, "ghost", 0)
	assert.Equal(t, "NOT_FOUND", appCode(t, err))
}

func TestProfileService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, _ := env.createUser(t, "alice")

	bio := "essayist"
	image := "https://example.com/alice.png"
	view, err := env.profiles.UpdateProfile(ctx, UpdateProfileInput{
		UserID: alice.ID,
		Bio:    &bio,
		Image:  &image,
	})
	require.NoError(t, err)
	assert.Equal(t, "essayist", view.Bio)
	assert.Equal(t, image, view.Image)

	// untouched fields stay put
	interests := "short stories"
	view, err = env.profiles.UpdateProfile(ctx, UpdateProfileInput{
		UserID:    alice.ID,
		Interests: &interests,
	})
	require.NoError(t, err)
	assert.Equal(t, "essayist", view.Bio)
	assert.Equal(t, "short stories", view.Interests)
}
