package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAllTemplates(t *testing.T) {
	data := ToMap(EmailData{
		Name:      "Ada",
		Email:     "ada@example.com",
		AppName:   "ChatZPT",
		AppURL:    "http://localhost:3000",
		ActionURL: "http://localhost:3000/reset-password?token=abc",
		ExpiresAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Time:      "2024-01-01 10:00 UTC",
		IP:        "10.0.0.1",
	})

	for _, name := range []string{Welcome, VerifyEmail, ResetPassword, PasswordChanged, AccountLocked} {
		t.Run(name, func(t *testing.T) {
			subject, text, html, err := Render(name, data)
			require.NoError(t, err)
			assert.NotEmpty(t, subject)
			assert.Contains(t, text, "Hello Ada")
			assert.Contains(t, html, "Hello Ada")
			assert.Contains(t, html, "ada@example.com")
			assert.NotContains(t, text, "<no value>")
		})
	}
}

func TestRenderActionLinks(t *testing.T) {
	data := ToMap(EmailData{
		Name:      "Ada",
		AppName:   "ChatZPT",
		ActionURL: "http://localhost:3000/verify-email?token=xyz",
		ExpiresAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	subject, text, html, err := Render(VerifyEmail, data)
	require.NoError(t, err)
	assert.Equal(t, "Verify your email address", subject)
	assert.Contains(t, text, "http://localhost:3000/verify-email?token=xyz")
	assert.Contains(t, text, "Tue, 02 Jan 2024 03:04:05 UTC")
	assert.Contains(t, html, "verify-email?token=xyz")
}

func TestRenderDefaultsName(t *testing.T) {
	_, text, _, err := Render(PasswordChanged, ToMap(EmailData{AppName: "ChatZPT"}))
	require.NoError(t, err)
	assert.Contains(t, text, "Hello there")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("does_not_exist", map[string]any{})
	require.Error(t, err)
}
