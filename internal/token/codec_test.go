package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/persona-chat-api/internal/models"
)

const (
	testAccessSecret  = "access-secret-access-secret-access-secret"
	testRefreshSecret = "refresh-secret-refresh-secret-refresh-secret"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(Config{AccessSecret: testAccessSecret, RefreshSecret: testRefreshSecret})
	require.NoError(t, err)
	return c
}

func TestNewCodecRejectsBadSecrets(t *testing.T) {
	_, err := NewCodec(Config{AccessSecret: "", RefreshSecret: testRefreshSecret})
	assert.Error(t, err)

	_, err = NewCodec(Config{AccessSecret: testAccessSecret, RefreshSecret: testAccessSecret})
	assert.Error(t, err)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	signed, _, err := c.Issue("user-1", "alice@example.com", models.TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	claims := c.Verify(signed, models.TokenTypeAccess)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, models.TokenTypeAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)

	assert.Nil(t, c.Verify(signed, models.TokenTypeRefresh))
}

func TestVerifyRejectsTypeMismatchWithSameSecret(t *testing.T) {
	c := newTestCodec(t)
	// A refresh-typed token signed with the access secret must still be rejected as access.
	forged, err := NewCodec(Config{AccessSecret: testRefreshSecret, RefreshSecret: testAccessSecret})
	require.NoError(t, err)
	signed, _, err := forged.Issue("user-1", "a@b.c", models.TokenTypeRefresh, time.Minute)
	require.NoError(t, err)

	assert.Nil(t, c.Verify(signed, models.TokenTypeAccess))
}

func TestVerifyRejectsExpiredTamperedAndGarbage(t *testing.T) {
	c := newTestCodec(t)
	past := c.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	expired, _, err := past.Issue("user-1", "a@b.c", models.TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, c.Verify(expired, models.TokenTypeAccess))

	valid, _, err := c.Issue("user-1", "a@b.c", models.TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	assert.Nil(t, c.Verify(tampered, models.TokenTypeAccess))

	assert.Nil(t, c.Verify("not-a-jwt", models.TokenTypeAccess))
	assert.Nil(t, c.Verify("", models.TokenTypeAccess))
	assert.Nil(t, c.Verify(valid, models.TokenType("other")))
}

func TestIssuePairLifetimes(t *testing.T) {
	c := newTestCodec(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c = c.WithClock(func() time.Time { return now })

	short, err := c.IssuePair("user-1", "a@b.c", false)
	require.NoError(t, err)
	assert.Equal(t, int64(15*60), short.Tokens().ExpiresIn)
	assert.Equal(t, now.Add(30*24*time.Hour), short.RefreshExpiresAt)

	long, err := c.IssuePair("user-1", "a@b.c", true)
	require.NoError(t, err)
	assert.Equal(t, int64(7*24*60*60), long.Tokens().ExpiresIn)
	assert.Equal(t, now.Add(30*24*time.Hour), long.RefreshExpiresAt)

	claims := c.Verify(long.AccessToken, models.TokenTypeAccess)
	require.NotNil(t, claims)
	assert.Equal(t, now.Add(7*24*time.Hour), claims.ExpiresAt.Time.UTC())

	refresh := c.Verify(long.RefreshToken, models.TokenTypeRefresh)
	require.NotNil(t, refresh)
	assert.NotEqual(t, claims.ID, refresh.ID)
}

func TestGenerateSecure(t *testing.T) {
	a, err := GenerateSecure()
	require.NoError(t, err)
	b, err := GenerateSecure()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "=")
}
