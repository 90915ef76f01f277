package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/repository"
	"github.com/noah-isme/persona-chat-api/internal/token"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
)

// PasswordResetPlaceholder is returned for reset requests against unknown emails.
const PasswordResetPlaceholder = "token-generated"

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	RegisterFailedLogin(ctx context.Context, id string, now time.Time, maxAttempts int, lockFor time.Duration) (models.SecurityState, bool, error)
	RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) error
}

type authTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindActiveRefreshToken(ctx context.Context, token, userID string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, now time.Time) error
	RotateRefreshToken(ctx context.Context, oldID string, next *models.RefreshToken, now time.Time) error
	RevokeRefreshTokenByValue(ctx context.Context, token string, now time.Time) (bool, error)
	RevokeUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error)
	CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error
	RedeemPasswordResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*models.User, error)
	CreateEmailVerificationToken(ctx context.Context, token *models.EmailVerificationToken) error
	RedeemEmailVerificationToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	CleanupExpired(ctx context.Context, now time.Time) (models.CleanupResult, error)
}

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type authNotifier interface {
	SendWelcome(ctx context.Context, user models.User)
	SendEmailVerification(ctx context.Context, user models.User, token string, expiresAt time.Time)
	SendPasswordReset(ctx context.Context, user models.User, token string, expiresAt time.Time)
	SendPasswordChanged(ctx context.Context, user models.User)
	SendAccountLocked(ctx context.Context, user models.User, until time.Time, ip string)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	BcryptCost             int
	MaxFailedLoginAttempts int
	LockoutDuration        time.Duration
	PasswordResetTTL       time.Duration
	EmailVerificationTTL   time.Duration
}

// AuthServiceParams groups AuthService dependencies.
type AuthServiceParams struct {
	Users     authUserRepository
	Tokens    authTokenRepository
	Codec     *token.Codec
	Notifier  authNotifier
	Audit     auditRecorder
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    AuthConfig
}

// AuthService implements the session lifecycle: login, registration, refresh
// rotation, logout and the one-shot reset and verification tokens.
type AuthService struct {
	users     authUserRepository
	tokens    authTokenRepository
	codec     *token.Codec
	notifier  authNotifier
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(params AuthServiceParams) *AuthService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = defaultValidator(params.Logger)
	}
	if params.Notifier == nil {
		params.Notifier = noopNotifier{}
	}
	cfg := params.Config
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 12
	}
	if cfg.MaxFailedLoginAttempts <= 0 {
		cfg.MaxFailedLoginAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 12 * time.Hour
	}
	if cfg.PasswordResetTTL <= 0 {
		cfg.PasswordResetTTL = 24 * time.Hour
	}
	if cfg.EmailVerificationTTL <= 0 {
		cfg.EmailVerificationTTL = 7 * 24 * time.Hour
	}

	svc := &AuthService{
		users:     params.Users,
		tokens:    params.Tokens,
		codec:     params.Codec,
		notifier:  params.Notifier,
		audit:     params.Audit,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
	return svc
}

// WithClock overrides the time source. Intended for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Login authenticates a user and returns issued tokens.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordAuthEvent(EventLogin, OutcomeFailure, "unknown_email")
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	now := s.now()
	if user.Security.Locked(now) {
		s.metrics.RecordAuthEvent(EventLogin, OutcomeFailure, "locked")
		return nil, appErrors.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.registerFailure(ctx, user, req, now)
		s.metrics.RecordAuthEvent(EventLogin, OutcomeFailure, "bad_password")
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		return nil, appErrors.Internal(err, "failed to update login state")
	}
	user.Security.Reset()
	user.LastLoginAt = &now

	pair, err := s.issueSession(ctx, user, req.RememberMe, req.UserAgent, req.IP)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, user.ID, models.AuditActionLogin, map[string]any{"rememberMe": req.RememberMe}, req.IP, req.UserAgent)
	s.metrics.RecordAuthEvent(EventLogin, OutcomeSuccess, "")

	return &models.LoginResponse{User: user.Public(), Tokens: pair.Tokens()}, nil
}

func (s *AuthService) registerFailure(ctx context.Context, user *models.User, req models.LoginRequest, now time.Time) {
	state, justLocked, err := s.users.RegisterFailedLogin(ctx, user.ID, now, s.config.MaxFailedLoginAttempts, s.config.LockoutDuration)
	if err != nil {
		s.logger.Warn("failed to record failed login", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	s.recordAudit(ctx, user.ID, models.AuditActionLoginFailed, map[string]any{"failedAttempts": state.FailedLoginAttempts}, req.IP, req.UserAgent)
	if !justLocked || state.LockedUntil == nil {
		return
	}
	s.logger.Warn("account locked after repeated failed logins",
		zap.String("user_id", user.ID),
		zap.Int("failed_attempts", state.FailedLoginAttempts),
		zap.Time("locked_until", *state.LockedUntil),
	)
	s.metrics.RecordLockout()
	s.recordAudit(ctx, user.ID, models.AuditActionAccountLocked, map[string]any{"lockedUntil": state.LockedUntil}, req.IP, req.UserAgent)
	s.notifier.SendAccountLocked(ctx, *user, *state.LockedUntil, req.IP)
}

// Register creates an account, opens its first session and issues an email
// verification token.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	now := s.now()
	email := req.Email
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Profile: models.Profile{
			Name:        name,
			Preferences: models.DefaultPreferences(),
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordAuthEvent(EventRegister, OutcomeFailure, "duplicate")
			return nil, appErrors.ErrUserAlreadyExists
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	pair, err := s.issueSession(ctx, user, false, req.UserAgent, req.IP)
	if err != nil {
		return nil, err
	}

	verification, expiresAt, err := s.createVerificationToken(ctx, user.ID)
	if err != nil {
		s.logger.Warn("failed to issue email verification token", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		s.notifier.SendEmailVerification(ctx, *user, verification, expiresAt)
	}
	s.notifier.SendWelcome(ctx, *user)

	s.recordAudit(ctx, user.ID, models.AuditActionRegister, map[string]any{"email": user.Email}, req.IP, req.UserAgent)
	s.metrics.RecordAuthEvent(EventRegister, OutcomeSuccess, "")

	return &models.RegisterResponse{User: user.Public(), Tokens: pair.Tokens()}, nil
}

// RefreshToken rotates a refresh token: the presented one is revoked and a new
// pair is issued. A token can be redeemed once.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.AuthTokens, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	claims := s.codec.Verify(req.RefreshToken, models.TokenTypeRefresh)
	if claims == nil {
		s.metrics.RecordAuthEvent(EventRefresh, OutcomeFailure, "bad_signature")
		return nil, appErrors.ErrInvalidRefreshToken
	}

	stored, err := s.tokens.FindActiveRefreshToken(ctx, req.RefreshToken, claims.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordAuthEvent(EventRefresh, OutcomeFailure, "unknown_token")
			return nil, appErrors.ErrInvalidRefreshToken
		}
		return nil, appErrors.Internal(err, "failed to fetch refresh token")
	}

	now := s.now()
	if stored.Expired(now) {
		if err := s.tokens.RevokeRefreshToken(ctx, stored.ID, now); err != nil {
			return nil, appErrors.Internal(err, "failed to revoke expired refresh token")
		}
		s.metrics.RecordAuthEvent(EventRefresh, OutcomeFailure, "expired")
		return nil, appErrors.ErrRefreshTokenExpired
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if user == nil || !user.IsActive {
		s.metrics.RecordAuthEvent(EventRefresh, OutcomeFailure, "inactive_user")
		return nil, appErrors.ErrInvalidRefreshToken
	}

	pair, err := s.codec.IssuePair(user.ID, user.Email, false)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to issue tokens")
	}
	next := &models.RefreshToken{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: now,
		UserAgent: req.UserAgent,
		IPAddress: req.IP,
	}
	if err := s.tokens.RotateRefreshToken(ctx, stored.ID, next, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordAuthEvent(EventRefresh, OutcomeFailure, "already_rotated")
			return nil, appErrors.ErrInvalidRefreshToken
		}
		return nil, appErrors.Internal(err, "failed to rotate refresh token")
	}

	s.recordAudit(ctx, user.ID, models.AuditActionTokenRefresh, nil, req.IP, req.UserAgent)
	s.metrics.RecordAuthEvent(EventRefresh, OutcomeSuccess, "")

	tokens := pair.Tokens()
	return &tokens, nil
}

// Logout revokes the named refresh token, or every token of userID when no
// token is given. It never fails.
func (s *AuthService) Logout(ctx context.Context, refreshToken, userID string) {
	now := s.now()
	switch {
	case refreshToken != "":
		if _, err := s.tokens.RevokeRefreshTokenByValue(ctx, refreshToken, now); err != nil {
			s.logger.Warn("failed to revoke refresh token on logout", zap.Error(err))
		}
	case userID != "":
		if _, err := s.tokens.RevokeUserRefreshTokens(ctx, userID, now); err != nil {
			s.logger.Warn("failed to revoke user refresh tokens on logout", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if userID != "" {
		s.recordAudit(ctx, userID, models.AuditActionLogout, map[string]any{"allSessions": refreshToken == ""}, "", "")
	}
	s.metrics.RecordAuthEvent(EventLogout, OutcomeSuccess, "")
}

// GeneratePasswordResetToken persists a reset token for the active account
// owning email. Unknown emails get PasswordResetPlaceholder and no record.
func (s *AuthService) GeneratePasswordResetToken(ctx context.Context, email, ip string) (string, error) {
	tok, _, _, err := s.generatePasswordReset(ctx, email, ip)
	return tok, err
}

func (s *AuthService) generatePasswordReset(ctx context.Context, email, ip string) (string, *models.User, time.Time, error) {
	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PasswordResetPlaceholder, nil, time.Time{}, nil
		}
		return "", nil, time.Time{}, appErrors.Internal(err, "failed to fetch user")
	}

	value, err := token.GenerateSecure()
	if err != nil {
		return "", nil, time.Time{}, appErrors.Internal(err, "failed to generate reset token")
	}
	now := s.now()
	record := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     value,
		ExpiresAt: now.Add(s.config.PasswordResetTTL),
		CreatedAt: now,
		IPAddress: ip,
	}
	if err := s.tokens.CreatePasswordResetToken(ctx, record); err != nil {
		return "", nil, time.Time{}, appErrors.Internal(err, "failed to persist reset token")
	}
	return value, user, record.ExpiresAt, nil
}

// ForgotPassword issues a reset token and emails it. Callers always see success.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	req.Email = models.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forgot password payload")
	}
	value, user, expiresAt, err := s.generatePasswordReset(ctx, req.Email, req.IP)
	if err != nil {
		s.logger.Warn("failed to issue password reset token", zap.Error(err))
		return nil
	}
	if user != nil {
		s.notifier.SendPasswordReset(ctx, *user, value, expiresAt)
	}
	return nil
}

// UsePasswordResetToken redeems a reset token and sets the new password.
// Existing refresh tokens stay valid.
func (s *AuthService) UsePasswordResetToken(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.config.BcryptCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}

	user, err := s.tokens.RedeemPasswordResetToken(ctx, req.Token, string(hash), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordAuthEvent(EventPasswordReset, OutcomeFailure, "invalid_token")
			return appErrors.ErrInvalidOrExpiredToken
		}
		return appErrors.Internal(err, "failed to reset password")
	}

	s.recordAudit(ctx, user.ID, models.AuditActionPasswordReset, nil, "", "")
	s.metrics.RecordAuthEvent(EventPasswordReset, OutcomeSuccess, "")
	s.notifier.SendPasswordChanged(ctx, *user)
	return nil
}

// GenerateEmailVerificationToken persists a verification token for userID.
func (s *AuthService) GenerateEmailVerificationToken(ctx context.Context, userID string) (string, error) {
	value, _, err := s.createVerificationToken(ctx, userID)
	return value, err
}

func (s *AuthService) createVerificationToken(ctx context.Context, userID string) (string, time.Time, error) {
	value, err := token.GenerateSecure()
	if err != nil {
		return "", time.Time{}, appErrors.Internal(err, "failed to generate verification token")
	}
	now := s.now()
	record := &models.EmailVerificationToken{
		UserID:    userID,
		Token:     value,
		ExpiresAt: now.Add(s.config.EmailVerificationTTL),
		CreatedAt: now,
	}
	if err := s.tokens.CreateEmailVerificationToken(ctx, record); err != nil {
		return "", time.Time{}, appErrors.Internal(err, "failed to persist verification token")
	}
	return value, record.ExpiresAt, nil
}

// UseEmailVerificationToken redeems a verification token and marks the owner verified.
func (s *AuthService) UseEmailVerificationToken(ctx context.Context, req models.VerifyEmailRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verify email payload")
	}

	user, err := s.tokens.RedeemEmailVerificationToken(ctx, req.Token, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordAuthEvent(EventEmailVerification, OutcomeFailure, "invalid_token")
			return appErrors.ErrInvalidOrExpiredToken
		}
		return appErrors.Internal(err, "failed to verify email")
	}

	s.recordAudit(ctx, user.ID, models.AuditActionEmailVerified, nil, "", "")
	s.metrics.RecordAuthEvent(EventEmailVerification, OutcomeSuccess, "")
	return nil
}

// ResendVerification issues a fresh verification token for an unverified account.
func (s *AuthService) ResendVerification(ctx context.Context, req models.ResendVerificationRequest) error {
	req.Email = models.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resend verification payload")
	}

	user, err := s.users.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return appErrors.Internal(err, "failed to fetch user")
	}
	if user.EmailVerified {
		return appErrors.ErrEmailAlreadyVerified
	}

	value, expiresAt, err := s.createVerificationToken(ctx, user.ID)
	if err != nil {
		return err
	}
	s.notifier.SendEmailVerification(ctx, *user, value, expiresAt)
	return nil
}

// CleanupExpiredTokens sweeps expired and consumed tokens from all collections.
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (models.CleanupResult, error) {
	res, err := s.tokens.CleanupExpired(ctx, s.now())
	if err != nil {
		return res, appErrors.Internal(err, "failed to clean up tokens")
	}
	s.metrics.RecordSweep(res)
	if total := res.Total(); total > 0 {
		s.logger.Info("expired tokens cleaned up",
			zap.Int("refresh_tokens", res.RefreshTokens),
			zap.Int("password_reset_tokens", res.PasswordResetTokens),
			zap.Int("email_verification_tokens", res.EmailVerificationTokens),
		)
	}
	return res, nil
}

// ValidateAccessToken verifies a bearer access token.
func (s *AuthService) ValidateAccessToken(_ context.Context, raw string) (*models.TokenClaims, error) {
	claims := s.codec.Verify(raw, models.TokenTypeAccess)
	if claims == nil {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}

// Authenticate validates an access token and checks that its subject still
// exists, is active and is not locked.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.TokenClaims, error) {
	claims, err := s.ValidateAccessToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if !user.IsActive {
		return nil, appErrors.ErrInactiveAccount
	}
	if user.Security.Locked(s.now()) {
		return nil, appErrors.ErrAccountLocked
	}
	return claims, nil
}

// CurrentUser returns the public view of userID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	public := user.Public()
	return &public, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User, rememberMe bool, userAgent, ip string) (token.Pair, error) {
	pair, err := s.codec.IssuePair(user.ID, user.Email, rememberMe)
	if err != nil {
		return token.Pair{}, appErrors.Internal(err, "failed to issue tokens")
	}
	record := &models.RefreshToken{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: s.now(),
		UserAgent: userAgent,
		IPAddress: ip,
	}
	if err := s.tokens.CreateRefreshToken(ctx, record); err != nil {
		return token.Pair{}, appErrors.Internal(err, "failed to persist refresh token")
	}
	return pair, nil
}

func (s *AuthService) recordAudit(ctx context.Context, userID, action string, details map[string]any, ip, userAgent string) {
	recordAudit(ctx, s.audit, s.logger, userID, action, details, ip, userAgent)
}

func recordAudit(ctx context.Context, audit auditRecorder, logger *zap.Logger, userID, action string, details map[string]any, ip, userAgent string) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   models.AuditResourceUser,
		ResourceID: &userID,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = raw
		}
	}
	if err := audit.Create(ctx, entry); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

type noopNotifier struct{}

func (noopNotifier) SendWelcome(context.Context, models.User) {}
func (noopNotifier) SendEmailVerification(context.Context, models.User, string, time.Time) {}
func (noopNotifier) SendPasswordReset(context.Context, models.User, string, time.Time) {}
func (noopNotifier) SendPasswordChanged(context.Context, models.User) {}
func (noopNotifier) SendAccountLocked(context.Context, models.User, time.Time, string) {}
