package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Internal wraps err as an unclassified failure.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Session and account errors.
var (
	ErrInvalidCredentials    = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrAccountLocked         = New("ACCOUNT_LOCKED", http.StatusLocked, "account is temporarily locked due to multiple failed login attempts")
	ErrUserAlreadyExists     = New("USER_ALREADY_EXISTS", http.StatusConflict, "an account with this email already exists")
	ErrInvalidRefreshToken   = New("INVALID_REFRESH_TOKEN", http.StatusUnauthorized, "invalid refresh token")
	ErrRefreshTokenExpired   = New("REFRESH_TOKEN_EXPIRED", http.StatusUnauthorized, "refresh token expired, please log in again")
	ErrInvalidOrExpiredToken = New("INVALID_OR_EXPIRED_TOKEN", http.StatusBadRequest, "invalid or expired token")
	ErrInvalidToken          = New("INVALID_TOKEN", http.StatusUnauthorized, "invalid or expired access token")
	ErrEmailAlreadyVerified  = New("EMAIL_ALREADY_VERIFIED", http.StatusBadRequest, "this email address has already been verified")
	ErrEmailNotVerified      = New("EMAIL_NOT_VERIFIED", http.StatusForbidden, "email verification required")
	ErrIncorrectPassword     = New("INCORRECT_CURRENT_PASSWORD", http.StatusBadRequest, "current password is incorrect")
	ErrInactiveAccount       = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrRateLimited           = New("RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests, "too many requests, please try again later")
	ErrUnauthorized          = New("UNAUTHORIZED", http.StatusUnauthorized, "authentication required")
	ErrForbidden             = New("FORBIDDEN", http.StatusForbidden, "access denied")
	ErrNotFound              = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation            = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal              = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrServiceUnavailable    = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
)

// ErrCacheMiss signals an absent cache entry. It never reaches clients.
var ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
