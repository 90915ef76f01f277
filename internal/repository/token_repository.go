package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/store"
)

// TokenRepository provides access to the refresh, password reset and email
// verification collections.
type TokenRepository struct {
	store *store.Store
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(s *store.Store) *TokenRepository {
	return &TokenRepository{store: s}
}

// CreateRefreshToken persists a refresh token entry.
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	prepareRefresh(token)
	return r.store.Update(func(d *store.Document) error {
		d.RefreshTokens = append(d.RefreshTokens, *token)
		return nil
	})
}

// FindActiveRefreshToken returns the non-revoked record with exactly this token
// string owned by userID. Expiry is left to the caller.
func (r *TokenRepository) FindActiveRefreshToken(ctx context.Context, token, userID string) (*models.RefreshToken, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var found *models.RefreshToken
	err := r.store.View(func(d *store.Document) error {
		idx := activeRefreshIndex(d, token, userID)
		if idx < 0 {
			return ErrNotFound
		}
		t := d.RefreshTokens[idx]
		found = &t
		return nil
	})
	return found, err
}

// RevokeRefreshToken marks a token as revoked by record id.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, id string, now time.Time) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return r.store.Update(func(d *store.Document) error {
		for i := range d.RefreshTokens {
			if d.RefreshTokens[i].ID == id {
				if !d.RefreshTokens[i].IsRevoked {
					d.RefreshTokens[i].Revoke(now)
				}
				return nil
			}
		}
		return ErrNotFound
	})
}

// RotateRefreshToken revokes the record oldID and stores next in one write.
// ErrNotFound means oldID was already consumed by a concurrent rotation.
func (r *TokenRepository) RotateRefreshToken(ctx context.Context, oldID string, next *models.RefreshToken, now time.Time) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	prepareRefresh(next)
	return r.store.Update(func(d *store.Document) error {
		idx := -1
		for i := range d.RefreshTokens {
			if d.RefreshTokens[i].ID == oldID {
				idx = i
				break
			}
		}
		if idx < 0 || d.RefreshTokens[idx].IsRevoked {
			return ErrNotFound
		}
		d.RefreshTokens[idx].Revoke(now)
		d.RefreshTokens = append(d.RefreshTokens, *next)
		return nil
	})
}

// RevokeRefreshTokenByValue revokes the record holding token, if any. It reports
// whether a record was changed.
func (r *TokenRepository) RevokeRefreshTokenByValue(ctx context.Context, token string, now time.Time) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	changed := false
	err := r.store.Update(func(d *store.Document) error {
		for i := range d.RefreshTokens {
			if d.RefreshTokens[i].Token == token && !d.RefreshTokens[i].IsRevoked {
				d.RefreshTokens[i].Revoke(now)
				changed = true
			}
		}
		return nil
	})
	return changed, err
}

// RevokeUserRefreshTokens revokes every active refresh token of a user.
func (r *TokenRepository) RevokeUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	count := 0
	err := r.store.Update(func(d *store.Document) error {
		for i := range d.RefreshTokens {
			if d.RefreshTokens[i].UserID == userID && !d.RefreshTokens[i].IsRevoked {
				d.RefreshTokens[i].Revoke(now)
				count++
			}
		}
		return nil
	})
	return count, err
}

// CountActiveRefreshTokens counts the unrevoked, unexpired sessions of userID.
func (r *TokenRepository) CountActiveRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	count := 0
	err := r.store.View(func(d *store.Document) error {
		for _, t := range d.RefreshTokens {
			if t.UserID == userID && !t.IsRevoked && !t.Expired(now) {
				count++
			}
		}
		return nil
	})
	return count, err
}

// CreatePasswordResetToken persists a password reset token.
func (r *TokenRepository) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	return r.store.Update(func(d *store.Document) error {
		d.PasswordResetTokens = append(d.PasswordResetTokens, *token)
		return nil
	})
}

// FindUsablePasswordResetToken returns an unused, unexpired reset token.
func (r *TokenRepository) FindUsablePasswordResetToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var found *models.PasswordResetToken
	err := r.store.View(func(d *store.Document) error {
		idx := usableResetIndex(d, token, now)
		if idx < 0 {
			return ErrNotFound
		}
		t := d.PasswordResetTokens[idx]
		found = &t
		return nil
	})
	return found, err
}

// RedeemPasswordResetToken sets the owner's password hash and marks the token
// used in one write. ErrNotFound covers unknown, used and expired tokens and
// tokens whose owner is gone or inactive.
func (r *TokenRepository) RedeemPasswordResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var owner models.User
	err := r.store.Update(func(d *store.Document) error {
		idx := usableResetIndex(d, token, now)
		if idx < 0 {
			return ErrNotFound
		}
		uidx := d.UserIndex(d.PasswordResetTokens[idx].UserID)
		if uidx < 0 || !d.Users[uidx].IsActive {
			return ErrNotFound
		}
		u := &d.Users[uidx]
		u.PasswordHash = passwordHash
		u.Security.LastPasswordChange = &now
		u.UpdatedAt = now
		d.PasswordResetTokens[idx].UsedAt = &now
		owner = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

// CreateEmailVerificationToken persists an email verification token.
func (r *TokenRepository) CreateEmailVerificationToken(ctx context.Context, token *models.EmailVerificationToken) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	return r.store.Update(func(d *store.Document) error {
		d.EmailVerificationTokens = append(d.EmailVerificationTokens, *token)
		return nil
	})
}

// RedeemEmailVerificationToken marks the owner verified and the token consumed.
func (r *TokenRepository) RedeemEmailVerificationToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var owner models.User
	err := r.store.Update(func(d *store.Document) error {
		idx := -1
		for i, t := range d.EmailVerificationTokens {
			if t.Token == token && t.Usable(now) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrNotFound
		}
		uidx := d.UserIndex(d.EmailVerificationTokens[idx].UserID)
		if uidx < 0 || !d.Users[uidx].IsActive {
			return ErrNotFound
		}
		u := &d.Users[uidx]
		u.EmailVerified = true
		u.UpdatedAt = now
		d.EmailVerificationTokens[idx].VerifiedAt = &now
		owner = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

// CleanupExpired drops expired tokens and tokens whose one-shot marker is set.
func (r *TokenRepository) CleanupExpired(ctx context.Context, now time.Time) (models.CleanupResult, error) {
	if err := ctxErr(ctx); err != nil {
		return models.CleanupResult{}, err
	}
	var res models.CleanupResult
	err := r.store.Update(func(d *store.Document) error {
		before := len(d.RefreshTokens)
		d.RefreshTokens = keepIf(d.RefreshTokens, func(t models.RefreshToken) bool {
			return !t.IsRevoked && !t.Expired(now)
		})
		res.RefreshTokens = before - len(d.RefreshTokens)

		before = len(d.PasswordResetTokens)
		d.PasswordResetTokens = keepIf(d.PasswordResetTokens, func(t models.PasswordResetToken) bool {
			return t.Usable(now)
		})
		res.PasswordResetTokens = before - len(d.PasswordResetTokens)

		before = len(d.EmailVerificationTokens)
		d.EmailVerificationTokens = keepIf(d.EmailVerificationTokens, func(t models.EmailVerificationToken) bool {
			return t.Usable(now)
		})
		res.EmailVerificationTokens = before - len(d.EmailVerificationTokens)
		return nil
	})
	return res, err
}

func prepareRefresh(token *models.RefreshToken) {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
}

func activeRefreshIndex(d *store.Document, token, userID string) int {
	for i, t := range d.RefreshTokens {
		if t.Token == token && t.UserID == userID && !t.IsRevoked {
			return i
		}
	}
	return -1
}

func usableResetIndex(d *store.Document, token string, now time.Time) int {
	for i, t := range d.PasswordResetTokens {
		if t.Token == token && t.Usable(now) {
			return i
		}
	}
	return -1
}

func keepIf[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, t := range in {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
