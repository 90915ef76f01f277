package store

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/persona-chat-api/internal/models"
)

// SeedAccount describes a demo account.
type SeedAccount struct {
	Email    string
	Password string
	Name     string
	Verified bool
}

// DefaultSeedAccounts are the demo logins shipped with development builds.
var DefaultSeedAccounts = []SeedAccount{
	{Email: "admin@chatzpt.com", Password: "Admin123!", Name: "Admin User", Verified: true},
	{Email: "user@chatzpt.com", Password: "User123!", Name: "Demo User", Verified: true},
	{Email: "test@chatzpt.com", Password: "Test123!", Name: "Test User", Verified: false},
}

// Seed creates each account whose email is not yet taken by an active user.
// It returns the emails created.
func (s *Store) Seed(accounts []SeedAccount, cost int) ([]string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	users := make([]models.User, 0, len(accounts))
	for _, acc := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password for %s: %w", acc.Email, err)
		}
		now := s.now().UTC()
		users = append(users, models.User{
			ID:            uuid.NewString(),
			Email:         models.NormalizeEmail(acc.Email),
			PasswordHash:  string(hash),
			Profile:       models.Profile{Name: acc.Name, Preferences: models.DefaultPreferences()},
			IsActive:      true,
			EmailVerified: acc.Verified,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	var created []string
	err := s.Update(func(d *Document) error {
		for _, u := range users {
			if d.ActiveUserIndexByEmail(u.Email) >= 0 {
				continue
			}
			d.Users = append(d.Users, u)
			created = append(created, u.Email)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Reset replaces the document with an empty one.
func (s *Store) Reset() error {
	return s.Replace(NewDocument(s.now()))
}
