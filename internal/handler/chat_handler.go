package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/persona-chat-api/internal/models"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
	"github.com/noah-isme/persona-chat-api/pkg/response"
)

type chatService interface {
	ListConversations(ctx context.Context, filter models.ConversationFilter) (*models.ConversationList, error)
	CreateConversation(ctx context.Context, userID string, req models.CreateConversationRequest) (*models.Conversation, error)
	GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error)
	Messages(ctx context.Context, userID, id string, limit, offset int) (*models.MessageList, error)
	DeleteConversation(ctx context.Context, userID, id string) error
	SendMessage(ctx context.Context, userID string, req models.SendMessageRequest) (*models.SendMessageResponse, error)
}

// ChatHandler serves conversations and message exchange.
type ChatHandler struct {
	service chatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc chatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// ListConversations godoc
// @Summary List conversations
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param characterId query string false "Only conversations with this character"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} response.Envelope
// @Router /chat/conversations [get]
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, offset, ok := pageQuery(c, 20)
	if !ok {
		return
	}
	list, err := h.service.ListConversations(c.Request.Context(), models.ConversationFilter{
		UserID:      userID,
		CharacterID: c.Query("characterId"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list, "")
}

// CreateConversation godoc
// @Summary Start conversation
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateConversationRequest true "Conversation"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /chat/conversations [post]
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conversation payload"))
		return
	}
	conv, err := h.service.CreateConversation(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"conversation": conv}, "conversation created")
}

// GetConversation godoc
// @Summary Get conversation
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /chat/conversations/{id} [get]
func (h *ChatHandler) GetConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	conv, err := h.service.GetConversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"conversation": conv}, "")
}

// Messages godoc
// @Summary Conversation messages
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} response.Envelope
// @Router /chat/conversations/{id}/messages [get]
func (h *ChatHandler) Messages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, offset, ok := pageQuery(c, 50)
	if !ok {
		return
	}
	list, err := h.service.Messages(c.Request.Context(), userID, c.Param("id"), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list, "")
}

// SendMessage godoc
// @Summary Send message
// @Description Stores the message and returns the character's reply. A new conversation is started when conversationId is empty.
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SendMessageRequest true "Message"
// @Success 200 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /chat/send-message [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}
	resp, err := h.service.SendMessage(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp, "")
}

// DeleteConversation godoc
// @Summary Delete conversation
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} response.Envelope
// @Router /chat/conversations/{id} [delete]
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteConversation(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "conversation deleted")
}
