package mailer_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vianajose7/faaxis/pkg/mailer"
)

func TestSendEmailParamsValidate(t *testing.T) {
	t.Parallel()

	valid := mailer.SendEmailParams{
		SendTo:   "advisor@example.com",
		Subject:  "Hello",
		BodyHTML: "<p>hi</p>",
	}
	require.NoError(t, valid.Validate())

	t.Run("bad recipient", func(t *testing.T) {
		t.Parallel()
		p := valid
		p.SendTo = "nope"
		require.ErrorIs(t, p.Validate(), mailer.ErrInvalidParams)
	})

	t.Run("missing subject", func(t *testing.T) {
		t.Parallel()
		p := valid
		p.Subject = ""
		require.ErrorIs(t, p.Validate(), mailer.ErrInvalidParams)
	})

	t.Run("missing body", func(t *testing.T) {
		t.Parallel()
		p := valid
		p.BodyHTML = ""
		require.ErrorIs(t, p.Validate(), mailer.ErrInvalidParams)
	})
}

func TestNewPostmarkSender(t *testing.T) {
	t.Parallel()

	base := mailer.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "no-reply@example.com",
		SupportEmail:         "support@example.com",
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		sender, err := mailer.NewPostmarkSender(base)
		require.NoError(t, err)
		assert.NotNil(t, sender)
	})

	t.Run("missing tokens", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.PostmarkServerToken = ""
		_, err := mailer.NewPostmarkSender(cfg)
		require.ErrorIs(t, err, mailer.ErrInvalidConfig)
	})

	t.Run("bad sender address", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.SenderEmail = "not-an-email"
		_, err := mailer.NewPostmarkSender(cfg)
		require.ErrorIs(t, err, mailer.ErrInvalidConfig)
	})
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	t.Run("logs metadata but never the body", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		sender := mailer.NewLogSender(slog.New(slog.NewTextHandler(&buf, nil)))

		params, err := mailer.LoginCodeEmail("advisor@example.com", "123456", 15*time.Minute)
		require.NoError(t, err)
		require.NoError(t, sender.SendEmail(context.Background(), params))

		out := buf.String()
		assert.Contains(t, out, "advisor@example.com")
		assert.Contains(t, out, "login-code")
		assert.NotContains(t, out, "123456")
	})

	t.Run("rejects invalid params", func(t *testing.T) {
		t.Parallel()
		sender := mailer.NewLogSender(nil)
		err := sender.SendEmail(context.Background(), mailer.SendEmailParams{})
		require.ErrorIs(t, err, mailer.ErrInvalidParams)
	})
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	t.Run("code email carries code and expiry", func(t *testing.T) {
		t.Parallel()
		params, err := mailer.PasswordResetCodeEmail("advisor@example.com", "654321", 30*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, params.BodyHTML, "654321")
		assert.Contains(t, params.BodyHTML, "30 minutes")
		assert.Equal(t, "password-reset", params.Tag)
	})

	t.Run("link email escapes the link", func(t *testing.T) {
		t.Parallel()
		params, err := mailer.VerificationLinkEmail("advisor@example.com", "https://example.com/verify?token=abc")
		require.NoError(t, err)
		assert.Contains(t, params.BodyHTML, "https://example.com/verify?token=abc")
		assert.Equal(t, "email-verification", params.Tag)
	})
}
