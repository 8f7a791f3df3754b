package token_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vianajose7/faaxis/pkg/token"
)

type verifyPayload struct {
	AccountID int64  `json:"uid"`
	Email     string `json:"email"`
	Subject   string `json:"sub"`
	ExpireAt  int64  `json:"exp"`
}

func TestGenerateParse(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"

	payload := verifyPayload{
		AccountID: 42,
		Email:     "advisor@example.com",
		Subject:   "email_verify",
		ExpireAt:  1900000000,
	}

	tok, err := token.Generate(payload, secret)
	require.NoError(t, err)

	got, err := token.Parse[verifyPayload](tok, secret)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"
	tok, err := token.Generate(verifyPayload{AccountID: 1}, secret)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		_, err := token.Parse[verifyPayload](tok, "other-secret")
		require.ErrorIs(t, err, token.ErrSignatureInvalid)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()
		parts := strings.Split(tok, ".")
		tampered := parts[0] + "x." + parts[1]
		_, err := token.Parse[verifyPayload](tampered, secret)
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		_, err := token.Parse[verifyPayload]("no-dot-here", secret)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})
}
