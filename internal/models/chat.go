package models

import "time"

// DefaultConversationTitle names conversations created without a title.
const DefaultConversationTitle = "새 대화"

// MessageType tells who wrote a message.
type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeCharacter MessageType = "character"
)

// Conversation is a thread between one user and one character.
type Conversation struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	CharacterID   string     `json:"characterId"`
	Title         string     `json:"title"`
	IsActive      bool       `json:"isActive"`
	MessageCount  int        `json:"messageCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
}

// MessageMetadata records how a character reply was produced.
type MessageMetadata struct {
	Tokens         int    `json:"tokens,omitempty"`
	ProcessingTime int64  `json:"processingTime,omitempty"`
	Model          string `json:"model,omitempty"`
}

// Message is one entry of a conversation.
type Message struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversationId"`
	Type           MessageType      `json:"type"`
	Content        string           `json:"content"`
	Timestamp      time.Time        `json:"timestamp"`
	CharacterID    string           `json:"characterId,omitempty"`
	Metadata       *MessageMetadata `json:"metadata,omitempty"`
}

// ConversationFilter narrows a conversation listing to one user.
type ConversationFilter struct {
	UserID      string
	CharacterID string
	Limit       int
	Offset      int
}

// CreateConversationRequest starts a conversation with a character.
type CreateConversationRequest struct {
	CharacterID string `json:"characterId" validate:"required"`
	Title       string `json:"title" validate:"max=100"`
}

// SendMessageRequest posts a user message. Without ConversationID a new
// conversation is started.
type SendMessageRequest struct {
	CharacterID    string `json:"characterId" validate:"required"`
	Message        string `json:"message" validate:"required,max=2000"`
	ConversationID string `json:"conversationId"`
}

// Completion is a generated character reply.
type Completion struct {
	Content string
	Tokens  int
	Model   string
}

// CharacterReply is the character side of a send-message response.
type CharacterReply struct {
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	CharacterID string    `json:"characterId"`
}

// SendMessageResponse returns the stored reply and the conversation it belongs to.
type SendMessageResponse struct {
	MessageID         string         `json:"messageId"`
	CharacterResponse CharacterReply `json:"characterResponse"`
	ConversationID    string         `json:"conversationId"`
}

// ConversationList is a page of conversations.
type ConversationList struct {
	Conversations []Conversation `json:"conversations"`
	Pagination    Pagination     `json:"pagination"`
}

// MessageList is a page of messages in timestamp order.
type MessageList struct {
	Messages   []Message  `json:"messages"`
	Pagination Pagination `json:"pagination"`
}
