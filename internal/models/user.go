package models

import (
	"strings"
	"time"
)

// Theme is the UI colour scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DefaultLanguage is assigned to new accounts.
const DefaultLanguage = "ko"

// User is an account stored in the users collection.
type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	PasswordHash  string        `json:"passwordHash"`
	Profile       Profile       `json:"profile"`
	IsActive      bool          `json:"isActive"`
	EmailVerified bool          `json:"emailVerified"`
	Security      SecurityState `json:"security"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	LastLoginAt   *time.Time    `json:"lastLoginAt,omitempty"`
}

// Profile holds user-editable display data.
type Profile struct {
	Name        string      `json:"name"`
	Avatar      string      `json:"avatar,omitempty"`
	Bio         string      `json:"bio,omitempty"`
	Preferences Preferences `json:"preferences"`
}

// Preferences are per-user UI settings.
type Preferences struct {
	Theme         Theme         `json:"theme"`
	Language      string        `json:"language"`
	Notifications Notifications `json:"notifications"`
}

// Notifications toggles notification channels.
type Notifications struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// DefaultPreferences returns the preference block assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         ThemeSystem,
		Language:      DefaultLanguage,
		Notifications: Notifications{Email: true, Push: true},
	}
}

// SecurityState tracks brute-force protection for an account.
type SecurityState struct {
	FailedLoginAttempts int        `json:"failedLoginAttempts"`
	LockedUntil         *time.Time `json:"lockedUntil,omitempty"`
	TwoFactorEnabled    bool       `json:"twoFactorEnabled"`
	LastPasswordChange  *time.Time `json:"lastPasswordChange,omitempty"`
}

// Locked reports whether the lock expiry lies strictly after now.
func (s SecurityState) Locked(now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}

// RecordFailure counts a failed login. The counter is never frozen, and every
// failure at or beyond max (re)starts the lock window. It returns true when this
// failure moved the account from unlocked to locked.
func (s *SecurityState) RecordFailure(now time.Time, max int, lockFor time.Duration) bool {
	wasLocked := s.Locked(now)
	s.FailedLoginAttempts++
	if max <= 0 || s.FailedLoginAttempts < max {
		return false
	}
	until := now.Add(lockFor)
	s.LockedUntil = &until
	return !wasLocked
}

// Reset clears the failure counter and any lock.
func (s *SecurityState) Reset() {
	s.FailedLoginAttempts = 0
	s.LockedUntil = nil
}

// NormalizeEmail returns the comparison key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicUser is the outward view of a user without credentials.
type PublicUser struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Profile       Profile    `json:"profile"`
	IsActive      bool       `json:"isActive"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// Public strips the password hash and security internals.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Profile:       u.Profile,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}

// UserStats aggregates account counters.
type UserStats struct {
	TotalUsers    int `json:"totalUsers"`
	ActiveUsers   int `json:"activeUsers"`
	VerifiedUsers int `json:"verifiedUsers"`
	LockedUsers   int `json:"lockedUsers"`
}

// UserActivity summarises recent account usage.
type UserActivity struct {
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	AccountAgeDays int        `json:"accountAgeDays"`
	ActiveSessions int        `json:"activeSessions"`
	Recent         []AuditLog `json:"recent"`
}

// UpdateProfileRequest is a partial profile update. Nil fields are untouched.
type UpdateProfileRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	Avatar *string `json:"avatar" validate:"omitempty,url,max=2048"`
	Bio    *string `json:"bio" validate:"omitempty,max=500"`
}

// UpdatePreferencesRequest is a partial preference update.
type UpdatePreferencesRequest struct {
	Theme         *Theme                      `json:"theme" validate:"omitempty,oneof=light dark system"`
	Language      *string                     `json:"language" validate:"omitempty,min=2,max=10"`
	Notifications *UpdateNotificationsRequest `json:"notifications"`
}

// UpdateNotificationsRequest toggles individual channels.
type UpdateNotificationsRequest struct {
	Email *bool `json:"email"`
	Push  *bool `json:"push"`
}

// ChangePasswordRequest updates the password of the authenticated user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}
