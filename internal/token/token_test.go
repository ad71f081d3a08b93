package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_RoundTrip(t *testing.T) {
	t.Parallel()
	maker := NewMaker("test-secret", time.Hour)

	issued, err := maker.Issue(42, "alice@example.com", PurposeActivate)
	require.NoError(t, err)
	require.NotEmpty(t, issued)

	userID, email, err := maker.Verify(issued, PurposeActivate)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, "alice@example.com", email)
}

func TestMaker_PurposeMismatch(t *testing.T) {
	t.Parallel()
	maker := NewMaker("test-secret", time.Hour)

	issued, err := maker.Issue(42, "alice@example.com", PurposeActivate)
	require.NoError(t, err)

	_, _, err = maker.Verify(issued, PurposeReset)
	assert.Error(t, err, "an activation token must not pass as a reset token")
}

func TestMaker_Expired(t *testing.T) {
	t.Parallel()
	maker := NewMaker("test-secret", -time.Minute)

	issued, err := maker.Issue(42, "alice@example.com", PurposeReset)
	require.NoError(t, err)

	_, _, err = maker.Verify(issued, PurposeReset)
	assert.Error(t, err)
}

func TestMaker_WrongSecret(t *testing.T) {
	t.Parallel()
	maker := NewMaker("test-secret", time.Hour)
	other := NewMaker("another-secret", time.Hour)

	issued, err := maker.Issue(42, "alice@example.com", PurposeReset)
	require.NoError(t, err)

	_, _, err = other.Verify(issued, PurposeReset)
	assert.Error(t, err)
}

func TestMaker_Garbage(t *testing.T) {
	t.Parallel()
	maker := NewMaker("test-secret", time.Hour)

	_, _, err := maker.Verify("not.a.jwt", PurposeActivate)
	assert.Error(t, err)
}
