package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/persona-chat-api/internal/models"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
	"github.com/noah-isme/persona-chat-api/pkg/response"
)

type characterService interface {
	List(ctx context.Context, filter models.CharacterFilter) (*models.CharacterList, error)
	Get(ctx context.Context, userID, id string) (*models.Character, error)
	Create(ctx context.Context, userID string, req models.CreateCharacterRequest) (*models.Character, error)
	Update(ctx context.Context, userID, id string, req models.UpdateCharacterRequest) (*models.Character, error)
	Delete(ctx context.Context, userID, id string) error
}

// CharacterHandler serves the character catalogue.
type CharacterHandler struct {
	service characterService
}

// NewCharacterHandler creates a new character handler.
func NewCharacterHandler(svc characterService) *CharacterHandler {
	return &CharacterHandler{service: svc}
}

// List godoc
// @Summary List characters
// @Description Default characters plus the caller's own.
// @Tags Characters
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches name, description or personality"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} response.Envelope
// @Router /characters [get]
func (h *CharacterHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, offset, ok := pageQuery(c, 20)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), models.CharacterFilter{
		UserID: userID,
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list, "")
}

// Get godoc
// @Summary Get character
// @Tags Characters
// @Produce json
// @Security BearerAuth
// @Param id path string true "Character ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /characters/{id} [get]
func (h *CharacterHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	character, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"character": character}, "")
}

// Create godoc
// @Summary Create custom character
// @Tags Characters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCharacterRequest true "Character"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /characters [post]
func (h *CharacterHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid character payload"))
		return
	}
	character, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"character": character}, "character created")
}

// Update godoc
// @Summary Update custom character
// @Tags Characters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Character ID"
// @Param payload body models.UpdateCharacterRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /characters/{id} [put]
func (h *CharacterHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid character payload"))
		return
	}
	character, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"character": character}, "character updated")
}

// Delete godoc
// @Summary Delete custom character
// @Tags Characters
// @Produce json
// @Security BearerAuth
// @Param id path string true "Character ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /characters/{id} [delete]
func (h *CharacterHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "character deleted")
}

// pageQuery reads limit and offset, writing a 400 when either is malformed.
func pageQuery(c *gin.Context, defaultLimit int) (int, int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
		return 0, 0, false
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "offset must be zero or a positive integer"))
		return 0, 0, false
	}
	return limit, offset, true
}
