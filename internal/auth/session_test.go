package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", time.Hour)

	token, err := v.Issue("user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", user)
}

func TestVerifier_WrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a", time.Hour).Issue("user@example.com")
	require.NoError(t, err)

	_, err = NewVerifier("secret-b", time.Hour).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_Expired(t *testing.T) {
	token, err := NewVerifier("test-secret", -time.Minute).Issue("user@example.com")
	require.NoError(t, err)

	_, err = NewVerifier("test-secret", -time.Minute).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_Garbage(t *testing.T) {
	_, err := NewVerifier("test-secret", time.Hour).Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
