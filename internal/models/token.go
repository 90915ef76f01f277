package models

import "time"

// RefreshToken is one issued refresh credential. Token holds the signed string verbatim.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UserAgent string     `json:"userAgent,omitempty"`
	IPAddress string     `json:"ipAddress,omitempty"`
	IsRevoked bool       `json:"isRevoked"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// Expired reports whether the token expiry has passed.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Revoke marks the token as consumed.
func (t *RefreshToken) Revoke(now time.Time) {
	t.IsRevoked = true
	t.RevokedAt = &now
}

// PasswordResetToken is a one-shot password reset credential.
type PasswordResetToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	IPAddress string     `json:"ipAddress,omitempty"`
}

// Usable reports whether the token is unused and unexpired.
func (t PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// EmailVerificationToken is a one-shot email confirmation credential.
type EmailVerificationToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Token      string     `json:"token"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

// Usable reports whether the token is unverified and unexpired.
func (t EmailVerificationToken) Usable(now time.Time) bool {
	return t.VerifiedAt == nil && now.Before(t.ExpiresAt)
}

// CleanupResult reports how many records a token sweep removed.
type CleanupResult struct {
	RefreshTokens           int `json:"refreshTokens"`
	PasswordResetTokens     int `json:"passwordResetTokens"`
	EmailVerificationTokens int `json:"emailVerificationTokens"`
}

// Total sums all removed records.
func (r CleanupResult) Total() int {
	return r.RefreshTokens + r.PasswordResetTokens + r.EmailVerificationTokens
}
