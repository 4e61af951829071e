package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "resend", c.EmailPrimaryProvider)
	assert.Equal(t, "sendgrid", c.EmailFallbackProvider)
	assert.Equal(t, 7*24*time.Hour, c.SessionTokenTTL)
	assert.Equal(t, 587, c.SMTPPort)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EMAIL_PRIMARY_PROVIDER", "SMTP")
	t.Setenv("EMAIL_FALLBACK_PROVIDER", "Resend")
	t.Setenv("SESSION_TOKEN_TTL", "24h")
	t.Setenv("SMTP_PORT", "2525")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "smtp", c.EmailPrimaryProvider)
	assert.Equal(t, "resend", c.EmailFallbackProvider)
	assert.Equal(t, 24*time.Hour, c.SessionTokenTTL)
	assert.Equal(t, 2525, c.SMTPPort)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("SESSION_TOKEN_TTL", "soon")
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, c.SessionTokenTTL)
}
