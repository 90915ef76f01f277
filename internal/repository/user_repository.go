package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/store"
)

// UserRepository provides access to the users collection.
type UserRepository struct {
	store *store.Store
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(s *store.Store) *UserRepository {
	return &UserRepository{store: s}
}

// FindByID returns a user by identifier, active or not.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var user *models.User
	err := r.store.View(func(d *store.Document) error {
		idx := d.UserIndex(id)
		if idx < 0 {
			return ErrNotFound
		}
		u := d.Users[idx]
		user = &u
		return nil
	})
	return user, err
}

// FindActiveByEmail returns the active user owning the normalized email.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var user *models.User
	err := r.store.View(func(d *store.Document) error {
		idx := d.ActiveUserIndexByEmail(email)
		if idx < 0 {
			return ErrNotFound
		}
		u := d.Users[idx]
		user = &u
		return nil
	})
	return user, err
}

// Create inserts a user. The email check and the insert happen under one write lock.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = models.NormalizeEmail(user.Email)
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	return r.store.Update(func(d *store.Document) error {
		if d.ActiveUserIndexByEmail(user.Email) >= 0 {
			return ErrDuplicate
		}
		d.Users = append(d.Users, *user)
		return nil
	})
}

// Update applies mutate to the stored user and persists it. UpdatedAt is stamped.
func (r *UserRepository) Update(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var updated models.User
	err := r.store.Update(func(d *store.Document) error {
		idx := d.UserIndex(id)
		if idx < 0 {
			return ErrNotFound
		}
		u := &d.Users[idx]
		if err := mutate(u); err != nil {
			return err
		}
		u.UpdatedAt = time.Now().UTC()
		updated = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RegisterFailedLogin increments the failure counter of an active user and
// applies the lockout rule in the same write. It returns the resulting state and
// whether this call locked the account.
func (r *UserRepository) RegisterFailedLogin(ctx context.Context, id string, now time.Time, maxAttempts int, lockFor time.Duration) (models.SecurityState, bool, error) {
	if err := ctxErr(ctx); err != nil {
		return models.SecurityState{}, false, err
	}
	var (
		state  models.SecurityState
		locked bool
	)
	err := r.store.Update(func(d *store.Document) error {
		idx := d.UserIndex(id)
		if idx < 0 || !d.Users[idx].IsActive {
			return ErrNotFound
		}
		u := &d.Users[idx]
		locked = u.Security.RecordFailure(now, maxAttempts, lockFor)
		u.UpdatedAt = now
		state = u.Security
		return nil
	})
	return state, locked, err
}

// RecordSuccessfulLogin clears the lockout state and stamps lastLoginAt.
func (r *UserRepository) RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) error {
	_, err := r.Update(ctx, id, func(u *models.User) error {
		u.Security.Reset()
		u.LastLoginAt = &now
		return nil
	})
	return err
}

// Delete removes the user with every token, conversation and custom
// character it owns.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return r.store.Update(func(d *store.Document) error {
		idx := d.UserIndex(id)
		if idx < 0 {
			return ErrNotFound
		}
		d.Users = append(d.Users[:idx], d.Users[idx+1:]...)
		d.RefreshTokens = keepIf(d.RefreshTokens, func(t models.RefreshToken) bool { return t.UserID != id })
		d.PasswordResetTokens = keepIf(d.PasswordResetTokens, func(t models.PasswordResetToken) bool { return t.UserID != id })
		d.EmailVerificationTokens = keepIf(d.EmailVerificationTokens, func(t models.EmailVerificationToken) bool { return t.UserID != id })

		owned := make(map[string]struct{})
		d.Conversations = keepIf(d.Conversations, func(c models.Conversation) bool {
			if c.UserID == id {
				owned[c.ID] = struct{}{}
				return false
			}
			return true
		})
		d.Messages = keepIf(d.Messages, func(m models.Message) bool {
			_, gone := owned[m.ConversationID]
			return !gone
		})
		d.Characters = keepIf(d.Characters, func(c models.Character) bool { return c.IsDefault || c.CreatedBy != id })
		return nil
	})
}

// Stats counts accounts. Verified and locked only count active users.
func (r *UserRepository) Stats(ctx context.Context, now time.Time) (models.UserStats, error) {
	if err := ctxErr(ctx); err != nil {
		return models.UserStats{}, err
	}
	var stats models.UserStats
	err := r.store.View(func(d *store.Document) error {
		st := d.Stats(now)
		stats = models.UserStats{
			TotalUsers:    st.Users,
			ActiveUsers:   st.ActiveUsers,
			VerifiedUsers: st.VerifiedUsers,
			LockedUsers:   st.LockedUsers,
		}
		return nil
	})
	return stats, err
}
