package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/repository"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
)

const userStatsCacheKey = "users:stats"

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, now time.Time) (models.UserStats, error)
}

type userTokenRevoker interface {
	RevokeUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error)
	CountActiveRefreshTokens(ctx context.Context, userID string, now time.Time) (int, error)
}

type auditReader interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

type passwordChangeNotifier interface {
	SendPasswordChanged(ctx context.Context, user models.User)
}

// UserServiceParams groups UserService dependencies.
type UserServiceParams struct {
	Users      userRepository
	Tokens     userTokenRevoker
	Notifier   passwordChangeNotifier
	Audit      auditRecorder
	History    auditReader
	Cache      *CacheService
	Validator  *validator.Validate
	Logger     *zap.Logger
	BcryptCost int
}

// UserService handles account management for the authenticated user.
type UserService struct {
	users      userRepository
	tokens     userTokenRevoker
	notifier   passwordChangeNotifier
	audit      auditRecorder
	history    auditReader
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(params UserServiceParams) *UserService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = defaultValidator(params.Logger)
	}
	if params.Notifier == nil {
		params.Notifier = noopNotifier{}
	}
	if params.BcryptCost <= 0 {
		params.BcryptCost = 12
	}
	svc := &UserService{
		users:      params.Users,
		tokens:     params.Tokens,
		notifier:   params.Notifier,
		audit:      params.Audit,
		history:    params.History,
		cache:      params.Cache,
		validator:  params.Validator,
		logger:     params.Logger,
		bcryptCost: params.BcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
	return svc
}

// Profile returns the public view of the user.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, s.mapLookupError(err)
	}
	public := user.Public()
	return &public, nil
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.PublicUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		if req.Name != nil {
			u.Profile.Name = strings.TrimSpace(*req.Name)
		}
		if req.Avatar != nil {
			u.Profile.Avatar = strings.TrimSpace(*req.Avatar)
		}
		if req.Bio != nil {
			u.Profile.Bio = *req.Bio
		}
		return nil
	})
	if err != nil {
		return nil, s.mapLookupError(err)
	}

	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionProfileUpdate, nil, "", "")
	public := user.Public()
	return &public, nil
}

// UpdatePreferences applies a partial preference update.
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, req models.UpdatePreferencesRequest) (*models.PublicUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferences payload")
	}

	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		prefs := &u.Profile.Preferences
		if req.Theme != nil {
			prefs.Theme = *req.Theme
		}
		if req.Language != nil {
			prefs.Language = *req.Language
		}
		if n := req.Notifications; n != nil {
			if n.Email != nil {
				prefs.Notifications.Email = *n.Email
			}
			if n.Push != nil {
				prefs.Notifications.Push = *n.Push
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.mapLookupError(err)
	}

	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionPreferencesUpdate, nil, "", "")
	public := user.Public()
	return &public, nil
}

// ChangePassword verifies the current password, stores the new one and ends
// every open session of the user.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return s.mapLookupError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return appErrors.ErrIncorrectPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}

	now := s.now()
	updated, err := s.users.Update(ctx, userID, func(u *models.User) error {
		u.PasswordHash = string(hash)
		u.Security.LastPasswordChange = &now
		return nil
	})
	if err != nil {
		return s.mapLookupError(err)
	}

	if _, err := s.tokens.RevokeUserRefreshTokens(ctx, userID, now); err != nil {
		s.logger.Warn("failed to revoke refresh tokens after password change", zap.String("user_id", userID), zap.Error(err))
	}
	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionPasswordChange, nil, "", "")
	s.notifier.SendPasswordChanged(ctx, *updated)
	return nil
}

// Deactivate soft-deletes the account and revokes its refresh tokens.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	now := s.now()
	if _, err := s.users.Update(ctx, userID, func(u *models.User) error {
		u.IsActive = false
		return nil
	}); err != nil {
		return s.mapLookupError(err)
	}

	if _, err := s.tokens.RevokeUserRefreshTokens(ctx, userID, now); err != nil {
		return appErrors.Internal(err, "failed to revoke refresh tokens")
	}
	_ = s.cache.Invalidate(ctx, userStatsCacheKey)
	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionAccountDeactivate, nil, "", "")
	s.logger.Info("account deactivated", zap.String("user_id", userID))
	return nil
}

// Delete removes the account and all tokens it owns.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return s.mapLookupError(err)
	}
	_ = s.cache.Invalidate(ctx, userStatsCacheKey)
	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionAccountDelete, nil, "", "")
	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// Stats returns account counters, served from cache when possible. The
// boolean reports a cache hit.
func (s *UserService) Stats(ctx context.Context) (*models.UserStats, bool, error) {
	stats, hit, err := Remember(ctx, s.cache, userStatsCacheKey, func(ctx context.Context) (models.UserStats, error) {
		return s.users.Stats(ctx, s.now())
	})
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to compute user stats")
	}
	return &stats, hit, nil
}

// Activity reports the session count and the most recent audit entries of the user.
// Audit history is empty when no audit database is configured.
func (s *UserService) Activity(ctx context.Context, userID string, limit int) (*models.UserActivity, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, s.mapLookupError(err)
	}
	now := s.now()
	sessions, err := s.tokens.CountActiveRefreshTokens(ctx, userID, now)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count sessions")
	}

	activity := &models.UserActivity{
		LastLoginAt:    user.LastLoginAt,
		AccountAgeDays: int(now.Sub(user.CreatedAt) / (24 * time.Hour)),
		ActiveSessions: sessions,
		Recent:         []models.AuditLog{},
	}
	if s.history == nil {
		return activity, nil
	}
	recent, err := s.history.List(ctx, models.AuditFilter{UserID: userID, Limit: limit})
	if err != nil {
		s.logger.Warn("failed to load audit history", zap.String("user_id", userID), zap.Error(err))
		return activity, nil
	}
	activity.Recent = recent
	return activity, nil
}

func (s *UserService) mapLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return appErrors.Internal(err, "failed to access user")
}
