package mailer

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

var codeTemplate = template.Must(template.New("code").Parse(`<html>
<body style="font-family: sans-serif; color: #1a1a1a;">
  <h2>{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>
  <p>The code expires in {{.Expiry}}. If you did not request it, you can ignore this message.</p>
</body>
</html>`))

var linkTemplate = template.Must(template.New("link").Parse(`<html>
<body style="font-family: sans-serif; color: #1a1a1a;">
  <h2>{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <p><a href="{{.Link}}">{{.Action}}</a></p>
  <p>If you did not request this, you can ignore this message.</p>
</body>
</html>`))

type codeEmailData struct {
	Heading string
	Intro   string
	Code    string
	Expiry  string
}

func renderCode(data codeEmailData) (string, error) {
	var sb strings.Builder
	if err := codeTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("mailer: render code email: %w", err)
	}
	return sb.String(), nil
}

func renderExpiry(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// LoginCodeEmail builds the message carrying a one-time login code.
func LoginCodeEmail(sendTo, code string, validFor time.Duration) (SendEmailParams, error) {
	body, err := renderCode(codeEmailData{
		Heading: "Your sign-in code",
		Intro:   "Use this code to finish signing in to your account.",
		Code:    code,
		Expiry:  renderExpiry(validFor),
	})
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		SendTo:   sendTo,
		Subject:  "Your sign-in code",
		BodyHTML: body,
		Tag:      "login-code",
	}, nil
}

// PasswordResetCodeEmail builds the message carrying a password reset code.
func PasswordResetCodeEmail(sendTo, code string, validFor time.Duration) (SendEmailParams, error) {
	body, err := renderCode(codeEmailData{
		Heading: "Reset your password",
		Intro:   "Use this code to confirm your password reset request.",
		Code:    code,
		Expiry:  renderExpiry(validFor),
	})
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		SendTo:   sendTo,
		Subject:  "Reset your password",
		BodyHTML: body,
		Tag:      "password-reset",
	}, nil
}

// AdminStepUpCodeEmail builds the message carrying an admin verification code.
func AdminStepUpCodeEmail(sendTo, code string, validFor time.Duration) (SendEmailParams, error) {
	body, err := renderCode(codeEmailData{
		Heading: "Admin verification code",
		Intro:   "Use this code to confirm your administrator sign-in.",
		Code:    code,
		Expiry:  renderExpiry(validFor),
	})
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		SendTo:   sendTo,
		Subject:  "Admin verification code",
		BodyHTML: body,
		Tag:      "admin-step-up",
	}, nil
}

// VerificationLinkEmail builds the message carrying an email verification link.
func VerificationLinkEmail(sendTo, link string) (SendEmailParams, error) {
	var sb strings.Builder
	err := linkTemplate.Execute(&sb, struct {
		Heading, Intro, Link, Action string
	}{
		Heading: "Verify your email address",
		Intro:   "Confirm this address to activate your account.",
		Link:    link,
		Action:  "Verify email",
	})
	if err != nil {
		return SendEmailParams{}, fmt.Errorf("mailer: render link email: %w", err)
	}
	return SendEmailParams{
		SendTo:   sendTo,
		Subject:  "Verify your email address",
		BodyHTML: sb.String(),
		Tag:      "email-verification",
	}, nil
}
