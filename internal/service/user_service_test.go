package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Sup3rSecret!Pass"

func register(t *testing.T, env *testEnv, username string) uint {
	t.Helper()
	user, err := env.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return user.ID
}

// activationToken digs the token out of the last captured email's link.
func activationToken(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	sent := env.mailer.sentTo(email)
	require.NotEmpty(t, sent, "no mail captured for %s", email)
	for _, line := range strings.Split(sent[len(sent)-1].Body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http") {
			return line[strings.LastIndex(line, "/")+1:]
		}
	}
	t.Fatalf("no link found in mail to %s", email)
	return ""
}

func TestUserService_RegisterAndActivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email, "email is normalized")
	assert.False(t, user.IsActive, "accounts start inactive")
	require.NotNil(t, user.Profile, "registration creates the profile")

	// login before activation is refused
	_, err = env.users.Authenticate(ctx, "alice@example.com", testPassword)
	assert.Equal(t, "UNAUTHORIZED", appCode(t, err))

	tok := activationToken(t, env, "alice@example.com")
	activated, err := env.users.Activate(ctx, tok)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	assert.True(t, activated.IsVerified)

	// activating twice is harmless
	_, err = env.users.Activate(ctx, tok)
	require.NoError(t, err)

	logged, err := env.users.Authenticate(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = env.users.Authenticate(ctx, "alice@example.com", "WrongPass1!xyz")
	assert.Equal(t, "UNAUTHORIZED", appCode(t, err))
}

func TestUserService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"short username", RegisterInput{Username: "ab", Email: "a@example.com", Password: testPassword}},
		{"bad email", RegisterInput{Username: "alice", Email: "not-an-email", Password: testPassword}},
		{"weak password", RegisterInput{Username: "alice", Email: "a@example.com", Password: "short"}},
		{"no special char", RegisterInput{Username: "alice", Email: "a@example.com", Password: "LongEnoughPass12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.input)
			assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
		})
	}
}

func TestUserService_RegisterDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	register(t, env, "alice")

	_, err := env.users.Register(ctx, RegisterInput{
		Username: "someone",
		Email:    "alice@example.com",
		Password: testPassword,
	})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))

	_, err = env.users.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "fresh@example.com",
		Password: testPassword,
	})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
}

func TestUserService_PasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	register(t, env, "alice")
	tok := activationToken(t, env, "alice@example.com")
	_, err := env.users.Activate(ctx, tok)
	require.NoError(t, err)

	// unknown addresses produce no error and no mail
	require.NoError(t, env.users.RequestPasswordReset(ctx, "ghost@example.com"))
	assert.Empty(t, env.mailer.sentTo("ghost@example.com"))

	require.NoError(t, env.users.RequestPasswordReset(ctx, "alice@example.com"))
	resetTok := activationToken(t, env, "alice@example.com")

	// the activation token cannot reset a password
	err = env.users.ResetPassword(ctx, tok, "NewSecret!Pass12")
	assert.Equal(t, "UNAUTHORIZED", appCode(t, err))

	require.NoError(t, env.users.ResetPassword(ctx, resetTok, "NewSecret!Pass12"))

	_, err = env.users.Authenticate(ctx, "alice@example.com", testPassword)
	assert.Equal(t, "UNAUTHORIZED", appCode(t, err))
	_, err = env.users.Authenticate(ctx, "alice@example.com", "NewSecret!Pass12")
	require.NoError(t, err)

	// each reset link works once
	err = env.users.ResetPassword(ctx, resetTok, "AnotherPass!345")
	assert.Equal(t, "UNAUTHORIZED", appCode(t, err))
}

func TestUserService_UpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, _ := env.createUser(t, "alice")

	newUsername := "alice_writer"
	wants := false
	updated, err := env.users.UpdateUser(ctx, UpdateUserInput{
		UserID:             user.ID,
		Username:           &newUsername,
		WantsNotifications: &wants,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice_writer", updated.Username)
	assert.False(t, updated.WantsNotifications)

	bad := "x"
	_, err = env.users.UpdateUser(ctx, UpdateUserInput{UserID: user.ID, Username: &bad})
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
}
