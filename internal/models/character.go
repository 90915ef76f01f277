package models

import "time"

// DefaultCharacterAvatar is used when a character is created without an avatar.
const DefaultCharacterAvatar = "/images/default-avatar.jpg"

// Character is a persona the user chats with. Default characters are shared
// by every account and cannot be edited; custom ones belong to CreatedBy.
type Character struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Personality  string    `json:"personality"`
	Avatar       string    `json:"avatar"`
	SystemPrompt string    `json:"systemPrompt"`
	IsDefault    bool      `json:"isDefault"`
	IsActive     bool      `json:"isActive"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VisibleTo reports whether userID may read the character.
func (c Character) VisibleTo(userID string) bool {
	return c.IsDefault || c.CreatedBy == userID
}

// CreateCharacterRequest defines a custom character.
type CreateCharacterRequest struct {
	Name         string `json:"name" validate:"required,max=50"`
	Description  string `json:"description" validate:"required,max=200"`
	Personality  string `json:"personality" validate:"max=300"`
	Avatar       string `json:"avatar" validate:"max=500"`
	SystemPrompt string `json:"systemPrompt" validate:"required,max=1000"`
}

// UpdateCharacterRequest is a partial update; nil fields are left unchanged.
type UpdateCharacterRequest struct {
	Name         *string `json:"name" validate:"omitnil,min=1,max=50"`
	Description  *string `json:"description" validate:"omitnil,min=1,max=200"`
	Personality  *string `json:"personality" validate:"omitempty,max=300"`
	Avatar       *string `json:"avatar" validate:"omitempty,max=500"`
	SystemPrompt *string `json:"systemPrompt" validate:"omitnil,min=1,max=1000"`
	IsActive     *bool   `json:"isActive"`
}

// CharacterFilter narrows a character listing.
type CharacterFilter struct {
	UserID string
	Search string
	Limit  int
	Offset int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// NewPagination derives HasMore from the page window.
func NewPagination(total, limit, offset int) Pagination {
	return Pagination{Total: total, Limit: limit, Offset: offset, HasMore: offset+limit < total}
}

// CharacterList is a page of characters.
type CharacterList struct {
	Characters []Character `json:"characters"`
	Pagination Pagination  `json:"pagination"`
}
