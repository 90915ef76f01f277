package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/repository"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
)

const (
	defaultCharacterPageSize = 20
	maxCharacterPageSize     = 100
)

var errDefaultCharacterReadOnly = appErrors.Clone(appErrors.ErrForbidden, "default characters cannot be modified")

type characterRepository interface {
	List(ctx context.Context, filter models.CharacterFilter) ([]models.Character, int, error)
	FindVisible(ctx context.Context, id, userID string) (*models.Character, error)
	Create(ctx context.Context, c *models.Character) error
	Update(ctx context.Context, id, userID string, mutate func(*models.Character) error) (*models.Character, error)
	Delete(ctx context.Context, id, userID string, allow func(models.Character) error) error
}

// CharacterServiceParams groups CharacterService dependencies.
type CharacterServiceParams struct {
	Characters characterRepository
	Audit      auditRecorder
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// CharacterService manages the personas a user can chat with. Default
// characters are shared and read-only; custom ones are private to their creator.
type CharacterService struct {
	characters characterRepository
	audit      auditRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCharacterService constructs a CharacterService.
func NewCharacterService(params CharacterServiceParams) *CharacterService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = defaultValidator(params.Logger)
	}
	return &CharacterService{
		characters: params.Characters,
		audit:      params.Audit,
		validator:  params.Validator,
		logger:     params.Logger,
	}
}

// List returns one page of the characters visible to the user.
func (s *CharacterService) List(ctx context.Context, filter models.CharacterFilter) (*models.CharacterList, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultCharacterPageSize
	}
	if filter.Limit > maxCharacterPageSize {
		filter.Limit = maxCharacterPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	items, total, err := s.characters.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list characters")
	}
	return &models.CharacterList{
		Characters: items,
		Pagination: models.NewPagination(total, filter.Limit, filter.Offset),
	}, nil
}

// Get returns a character visible to the user.
func (s *CharacterService) Get(ctx context.Context, userID, id string) (*models.Character, error) {
	c, err := s.characters.FindVisible(ctx, id, userID)
	if err != nil {
		return nil, mapCharacterError(err)
	}
	return c, nil
}

// Create stores a custom character owned by the user.
func (s *CharacterService) Create(ctx context.Context, userID string, req models.CreateCharacterRequest) (*models.Character, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.SystemPrompt = strings.TrimSpace(req.SystemPrompt)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name, description and systemPrompt are required")
	}

	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" {
		avatar = models.DefaultCharacterAvatar
	}
	c := &models.Character{
		Name:         req.Name,
		Description:  req.Description,
		Personality:  strings.TrimSpace(req.Personality),
		Avatar:       avatar,
		SystemPrompt: req.SystemPrompt,
		IsActive:     true,
		CreatedBy:    userID,
	}
	if err := s.characters.Create(ctx, c); err != nil {
		return nil, appErrors.Internal(err, "failed to create character")
	}

	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionCharacterCreate, map[string]any{"characterId": c.ID}, "", "")
	s.logger.Info("character created", zap.String("user_id", userID), zap.String("character_id", c.ID))
	return c, nil
}

// Update applies a partial update to one of the user's custom characters.
func (s *CharacterService) Update(ctx context.Context, userID, id string, req models.UpdateCharacterRequest) (*models.Character, error) {
	for _, field := range []*string{req.Name, req.Description, req.Personality, req.Avatar, req.SystemPrompt} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid character payload")
	}

	c, err := s.characters.Update(ctx, id, userID, func(c *models.Character) error {
		if c.IsDefault {
			return errDefaultCharacterReadOnly
		}
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Description != nil {
			c.Description = *req.Description
		}
		if req.Personality != nil {
			c.Personality = *req.Personality
		}
		if req.Avatar != nil {
			c.Avatar = *req.Avatar
		}
		if req.SystemPrompt != nil {
			c.SystemPrompt = *req.SystemPrompt
		}
		if req.IsActive != nil {
			c.IsActive = *req.IsActive
		}
		return nil
	})
	if err != nil {
		return nil, mapCharacterError(err)
	}

	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionCharacterUpdate, map[string]any{"characterId": id}, "", "")
	return c, nil
}

// Delete removes one of the user's custom characters.
func (s *CharacterService) Delete(ctx context.Context, userID, id string) error {
	err := s.characters.Delete(ctx, id, userID, func(c models.Character) error {
		if c.IsDefault {
			return errDefaultCharacterReadOnly
		}
		return nil
	})
	if err != nil {
		return mapCharacterError(err)
	}

	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionCharacterDelete, map[string]any{"characterId": id}, "", "")
	s.logger.Info("character deleted", zap.String("user_id", userID), zap.String("character_id", id))
	return nil
}

func mapCharacterError(err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "character not found")
	case errors.As(err, &appErr):
		return appErr
	}
	return appErrors.Internal(err, "failed to access character")
}
