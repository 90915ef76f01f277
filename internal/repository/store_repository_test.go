package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	return s
}

func seedUser(t *testing.T, repo *UserRepository, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "hash", IsActive: true, Profile: models.Profile{Preferences: models.DefaultPreferences()}}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserCreateNormalisesAndRejectsDuplicates(t *testing.T) {
	repo := NewUserRepository(newStore(t))
	ctx := context.Background()

	u := seedUser(t, repo, "  Alice@Example.com ")
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEmpty(t, u.ID)

	err := repo.Create(ctx, &models.User{Email: "ALICE@example.com", IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.FindActiveByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = repo.FindActiveByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserInactiveEmailCanBeReused(t *testing.T) {
	repo := NewUserRepository(newStore(t))
	ctx := context.Background()

	u := seedUser(t, repo, "carol@example.com")
	_, err := repo.Update(ctx, u.ID, func(u *models.User) error {
		u.IsActive = false
		return nil
	})
	require.NoError(t, err)

	_, err = repo.FindActiveByEmail(ctx, "carol@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	seedUser(t, repo, "carol@example.com")
}

func TestRegisterFailedLoginLocksAtThreshold(t *testing.T) {
	repo := NewUserRepository(newStore(t))
	ctx := context.Background()
	u := seedUser(t, repo, "dave@example.com")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 4; i++ {
		state, locked, err := repo.RegisterFailedLogin(ctx, u.ID, now, 5, 12*time.Hour)
		require.NoError(t, err)
		assert.False(t, locked)
		assert.Equal(t, i, state.FailedLoginAttempts)
		assert.Nil(t, state.LockedUntil)
	}

	state, locked, err := repo.RegisterFailedLogin(ctx, u.ID, now, 5, 12*time.Hour)
	require.NoError(t, err)
	assert.True(t, locked)
	require.NotNil(t, state.LockedUntil)
	assert.Equal(t, now.Add(12*time.Hour), *state.LockedUntil)

	state, locked, err = repo.RegisterFailedLogin(ctx, u.ID, now.Add(time.Minute), 5, 12*time.Hour)
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 6, state.FailedLoginAttempts)

	require.NoError(t, repo.RecordSuccessfulLogin(ctx, u.ID, now))
	reloaded, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Security.FailedLoginAttempts)
	assert.Nil(t, reloaded.Security.LockedUntil)
	require.NotNil(t, reloaded.LastLoginAt)
}

func TestRegisterFailedLoginIsAtomic(t *testing.T) {
	repo := NewUserRepository(newStore(t))
	u := seedUser(t, repo, "erin@example.com")
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = repo.RegisterFailedLogin(context.Background(), u.ID, now, 5, time.Hour)
		}()
	}
	wg.Wait()

	reloaded, err := repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Security.FailedLoginAttempts)
}

func TestUserDeleteCascadesTokens(t *testing.T) {
	s := newStore(t)
	users := NewUserRepository(s)
	tokens := NewTokenRepository(s)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, users, "frank@example.com")
	other := seedUser(t, users, "grace@example.com")
	require.NoError(t, tokens.CreateRefreshToken(ctx, &models.RefreshToken{UserID: u.ID, Token: "r1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, tokens.CreateRefreshToken(ctx, &models.RefreshToken{UserID: other.ID, Token: "r2", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, tokens.CreatePasswordResetToken(ctx, &models.PasswordResetToken{UserID: u.ID, Token: "p1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, tokens.CreateEmailVerificationToken(ctx, &models.EmailVerificationToken{UserID: u.ID, Token: "v1", ExpiresAt: now.Add(time.Hour)}))

	require.NoError(t, users.Delete(ctx, u.ID))
	assert.ErrorIs(t, users.Delete(ctx, u.ID), ErrNotFound)

	st := s.Stats()
	assert.Equal(t, 1, st.Users)
	assert.Equal(t, 1, st.RefreshTokens)
	assert.Zero(t, st.PasswordResetTokens)
	assert.Zero(t, st.EmailVerificationTokens)
}

func TestRefreshTokenRotation(t *testing.T) {
	tokens := NewTokenRepository(newStore(t))
	ctx := context.Background()
	now := time.Now().UTC()

	old := &models.RefreshToken{UserID: "u1", Token: "old", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, tokens.CreateRefreshToken(ctx, old))

	_, err := tokens.FindActiveRefreshToken(ctx, "old", "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := tokens.FindActiveRefreshToken(ctx, "old", "u1")
	require.NoError(t, err)
	assert.Equal(t, old.ID, found.ID)

	next := &models.RefreshToken{UserID: "u1", Token: "new", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, tokens.RotateRefreshToken(ctx, old.ID, next, now))

	_, err = tokens.FindActiveRefreshToken(ctx, "old", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tokens.FindActiveRefreshToken(ctx, "new", "u1")
	assert.NoError(t, err)

	err = tokens.RotateRefreshToken(ctx, old.ID, &models.RefreshToken{UserID: "u1", Token: "again"}, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevokeByValueAndByUser(t *testing.T) {
	tokens := NewTokenRepository(newStore(t))
	ctx := context.Background()
	now := time.Now().UTC()

	for _, tok := range []string{"a", "b", "c"} {
		require.NoError(t, tokens.CreateRefreshToken(ctx, &models.RefreshToken{UserID: "u1", Token: tok, ExpiresAt: now.Add(time.Hour)}))
	}

	changed, err := tokens.RevokeRefreshTokenByValue(ctx, "a", now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = tokens.RevokeRefreshTokenByValue(ctx, "a", now)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = tokens.RevokeRefreshTokenByValue(ctx, "missing", now)
	require.NoError(t, err)
	assert.False(t, changed)

	n, err := tokens.RevokeUserRefreshTokens(ctx, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRedeemPasswordResetToken(t *testing.T) {
	s := newStore(t)
	users := NewUserRepository(s)
	tokens := NewTokenRepository(s)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, users, "heidi@example.com")
	require.NoError(t, tokens.CreatePasswordResetToken(ctx, &models.PasswordResetToken{UserID: u.ID, Token: "reset", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, tokens.CreatePasswordResetToken(ctx, &models.PasswordResetToken{UserID: u.ID, Token: "stale", ExpiresAt: now.Add(-time.Minute)}))

	_, err := tokens.FindUsablePasswordResetToken(ctx, "stale", now)
	assert.ErrorIs(t, err, ErrNotFound)

	owner, err := tokens.RedeemPasswordResetToken(ctx, "reset", "new-hash", now)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", owner.PasswordHash)
	require.NotNil(t, owner.Security.LastPasswordChange)

	_, err = tokens.RedeemPasswordResetToken(ctx, "reset", "other-hash", now)
	assert.ErrorIs(t, err, ErrNotFound)

	reloaded, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reloaded.PasswordHash)
}

func TestRedeemEmailVerificationToken(t *testing.T) {
	s := newStore(t)
	users := NewUserRepository(s)
	tokens := NewTokenRepository(s)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, users, "ivan@example.com")
	require.NoError(t, tokens.CreateEmailVerificationToken(ctx, &models.EmailVerificationToken{UserID: u.ID, Token: "verify", ExpiresAt: now.Add(time.Hour)}))

	owner, err := tokens.RedeemEmailVerificationToken(ctx, "verify", now)
	require.NoError(t, err)
	assert.True(t, owner.EmailVerified)

	_, err = tokens.RedeemEmailVerificationToken(ctx, "verify", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupExpired(t *testing.T) {
	s := newStore(t)
	tokens := NewTokenRepository(s)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.NoError(t, tokens.CreateRefreshToken(ctx, &models.RefreshToken{UserID: "u", Token: "live", ExpiresAt: future}))
	require.NoError(t, tokens.CreateRefreshToken(ctx, &models.RefreshToken{UserID: "u", Token: "expired", ExpiresAt: past}))
	require.NoError(t, tokens.CreateRefreshToken(ctx, &models.RefreshToken{UserID: "u", Token: "revoked", ExpiresAt: future, IsRevoked: true}))
	require.NoError(t, tokens.CreatePasswordResetToken(ctx, &models.PasswordResetToken{UserID: "u", Token: "p-live", ExpiresAt: future}))
	require.NoError(t, tokens.CreatePasswordResetToken(ctx, &models.PasswordResetToken{UserID: "u", Token: "p-used", ExpiresAt: future, UsedAt: &now}))
	require.NoError(t, tokens.CreateEmailVerificationToken(ctx, &models.EmailVerificationToken{UserID: "u", Token: "v-old", ExpiresAt: past}))

	res, err := tokens.CleanupExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, models.CleanupResult{RefreshTokens: 2, PasswordResetTokens: 1, EmailVerificationTokens: 1}, res)
	assert.Equal(t, 4, res.Total())

	st := s.Stats()
	assert.Equal(t, 1, st.RefreshTokens)
	assert.Equal(t, 1, st.PasswordResetTokens)
	assert.Zero(t, st.EmailVerificationTokens)
}

func TestCanceledContext(t *testing.T) {
	repo := NewUserRepository(newStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindByID(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
