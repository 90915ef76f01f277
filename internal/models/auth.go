package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates access and refresh bearer tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenClaims is the payload of both bearer token types. Subject carries the user id.
type TokenClaims struct {
	Email string    `json:"email"`
	Type  TokenType `json:"type"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c TokenClaims) UserID() string {
	return c.Subject
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,password"`
	Name      string `json:"name" validate:"omitempty,max=100"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// AuthTokens is an issued access/refresh pair. ExpiresIn is the access token TTL in seconds.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LoginResponse returns the issued tokens and the authenticated user.
type LoginResponse struct {
	User   PublicUser `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}

// RegisterResponse returns the created user and its first token pair.
type RegisterResponse struct {
	User   PublicUser `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// LogoutRequest optionally names the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
	IP    string `json:"-"`
}

// ResetPasswordRequest redeems a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

// VerifyEmailRequest redeems a verification token.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// ResendVerificationRequest asks for a fresh verification email.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}
