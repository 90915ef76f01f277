package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/repository"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
	"github.com/noah-isme/persona-chat-api/pkg/llm"
)

const (
	defaultConversationPageSize = 20
	defaultMessagePageSize      = 50
	maxChatPageSize             = 200
)

type conversationRepository interface {
	List(ctx context.Context, filter models.ConversationFilter) ([]models.Conversation, int, error)
	Find(ctx context.Context, id, userID string) (*models.Conversation, error)
	Create(ctx context.Context, c *models.Conversation) error
	Delete(ctx context.Context, id, userID string) (bool, error)
	Messages(ctx context.Context, id, userID string, limit, offset int) ([]models.Message, int, error)
	Recent(ctx context.Context, id, userID string, n int) ([]models.Message, error)
	AddMessage(ctx context.Context, userID string, msg *models.Message) error
}

type characterFinder interface {
	FindVisible(ctx context.Context, id, userID string) (*models.Character, error)
}

type chatCompleter interface {
	Complete(ctx context.Context, req llm.Request) (llm.Reply, error)
}

// ChatServiceParams groups ChatService dependencies. ContextMessages bounds
// the history handed to the completer.
type ChatServiceParams struct {
	Conversations   conversationRepository
	Characters      characterFinder
	Completer       chatCompleter
	Metrics         *MetricsService
	Validator       *validator.Validate
	Logger          *zap.Logger
	ContextMessages int
}

// ChatService runs conversations between a user and a character.
type ChatService struct {
	conversations   conversationRepository
	characters      characterFinder
	completer       chatCompleter
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
	contextMessages int
	now             func() time.Time
}

// NewChatService constructs a ChatService. Without a completer replies come
// from the offline mock.
func NewChatService(params ChatServiceParams) *ChatService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = defaultValidator(params.Logger)
	}
	if params.Completer == nil {
		params.Completer = llm.NewMock()
	}
	if params.ContextMessages <= 0 {
		params.ContextMessages = 8
	}
	return &ChatService{
		conversations:   params.Conversations,
		characters:      params.Characters,
		completer:       params.Completer,
		metrics:         params.Metrics,
		validator:       params.Validator,
		logger:          params.Logger,
		contextMessages: params.ContextMessages,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// ListConversations returns the user's conversations, newest activity first.
func (s *ChatService) ListConversations(ctx context.Context, filter models.ConversationFilter) (*models.ConversationList, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset, defaultConversationPageSize)
	items, total, err := s.conversations.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list conversations")
	}
	return &models.ConversationList{
		Conversations: items,
		Pagination:    models.NewPagination(total, filter.Limit, filter.Offset),
	}, nil
}

// CreateConversation starts an empty conversation with a visible character.
func (s *ChatService) CreateConversation(ctx context.Context, userID string, req models.CreateConversationRequest) (*models.Conversation, error) {
	req.CharacterID = strings.TrimSpace(req.CharacterID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "characterId is required")
	}
	if _, err := s.characters.FindVisible(ctx, req.CharacterID, userID); err != nil {
		return nil, mapCharacterError(err)
	}
	return s.startConversation(ctx, userID, req.CharacterID, req.Title)
}

func (s *ChatService) startConversation(ctx context.Context, userID, characterID, title string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.DefaultConversationTitle
	}
	conv := &models.Conversation{
		UserID:      userID,
		CharacterID: characterID,
		Title:       title,
		IsActive:    true,
		CreatedAt:   s.now(),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, appErrors.Internal(err, "failed to create conversation")
	}
	return conv, nil
}

// GetConversation returns one of the user's conversations.
func (s *ChatService) GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error) {
	conv, err := s.conversations.Find(ctx, id, userID)
	if err != nil {
		return nil, mapConversationError(err)
	}
	return conv, nil
}

// Messages returns a page of a conversation in timestamp order.
func (s *ChatService) Messages(ctx context.Context, userID, id string, limit, offset int) (*models.MessageList, error) {
	limit, offset = clampPage(limit, offset, defaultMessagePageSize)
	items, total, err := s.conversations.Messages(ctx, id, userID, limit, offset)
	if err != nil {
		return nil, mapConversationError(err)
	}
	return &models.MessageList{
		Messages:   items,
		Pagination: models.NewPagination(total, limit, offset),
	}, nil
}

// DeleteConversation removes a conversation and its messages. Deleting an
// unknown conversation succeeds.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, id string) error {
	removed, err := s.conversations.Delete(ctx, id, userID)
	if err != nil {
		return appErrors.Internal(err, "failed to delete conversation")
	}
	if removed {
		s.logger.Info("conversation deleted", zap.String("user_id", userID), zap.String("conversation_id", id))
	}
	return nil
}

// SendMessage stores the user's message, asks the completer for the
// character's reply and stores that too. Without a conversation id a new
// conversation is started.
func (s *ChatService) SendMessage(ctx context.Context, userID string, req models.SendMessageRequest) (*models.SendMessageResponse, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "characterId and message are required")
	}

	character, err := s.characters.FindVisible(ctx, req.CharacterID, userID)
	if err != nil {
		return nil, mapCharacterError(err)
	}

	var (
		conv    *models.Conversation
		history []models.Message
	)
	if req.ConversationID == "" {
		conv, err = s.startConversation(ctx, userID, character.ID, "")
		if err != nil {
			return nil, err
		}
	} else {
		conv, err = s.conversations.Find(ctx, req.ConversationID, userID)
		if err != nil {
			return nil, mapConversationError(err)
		}
		history, err = s.conversations.Recent(ctx, conv.ID, userID, s.contextMessages)
		if err != nil {
			return nil, mapConversationError(err)
		}
	}

	userMsg := &models.Message{
		ConversationID: conv.ID,
		Type:           models.MessageTypeUser,
		Content:        req.Message,
		Timestamp:      s.now(),
	}
	if err := s.conversations.AddMessage(ctx, userID, userMsg); err != nil {
		return nil, mapConversationError(err)
	}

	reply, err := s.complete(ctx, character, history, req.Message)
	if err != nil {
		return nil, err
	}

	charMsg := &models.Message{
		ConversationID: conv.ID,
		Type:           models.MessageTypeCharacter,
		Content:        reply.Content,
		Timestamp:      s.now(),
		CharacterID:    character.ID,
		Metadata: &models.MessageMetadata{
			Tokens:         reply.Tokens,
			ProcessingTime: reply.Took.Milliseconds(),
			Model:          reply.Model,
		},
	}
	if err := s.conversations.AddMessage(ctx, userID, charMsg); err != nil {
		return nil, mapConversationError(err)
	}

	return &models.SendMessageResponse{
		MessageID: charMsg.ID,
		CharacterResponse: models.CharacterReply{
			Message:     charMsg.Content,
			Timestamp:   charMsg.Timestamp,
			CharacterID: character.ID,
		},
		ConversationID: conv.ID,
	}, nil
}

func (s *ChatService) complete(ctx context.Context, character *models.Character, history []models.Message, message string) (llm.Reply, error) {
	turns := make([]llm.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, llm.Turn{FromUser: m.Type == models.MessageTypeUser, Content: m.Content})
	}

	start := time.Now()
	reply, err := s.completer.Complete(ctx, llm.Request{
		Persona: llm.Persona{ID: character.ID, Name: character.Name, SystemPrompt: character.SystemPrompt},
		History: turns,
		Message: message,
	})
	if reply.Took == 0 {
		reply.Took = time.Since(start)
	}
	source := reply.Model
	if source == "" {
		source = "unknown"
	}
	s.metrics.ObserveCompletion(source, reply.Took, err)

	if err != nil {
		s.logger.Warn("character reply failed", zap.String("character_id", character.ID), zap.Error(err))
		if errors.Is(err, llm.ErrRateLimited) {
			return llm.Reply{}, appErrors.Wrap(err, appErrors.ErrRateLimited.Code, appErrors.ErrRateLimited.Status, "AI rate limit exceeded, please try again later")
		}
		return llm.Reply{}, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to get AI response, please try again")
	}
	return reply, nil
}

func mapConversationError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, "conversation not found")
	}
	return appErrors.Internal(err, "failed to access conversation")
}

func clampPage(limit, offset, fallback int) (int, int) {
	if limit <= 0 {
		limit = fallback
	}
	if limit > maxChatPageSize {
		limit = maxChatPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
