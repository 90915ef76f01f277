package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/store"
)

// ConversationRepository provides access to conversations and their messages.
// Every lookup is scoped to the owning user; a conversation of another user
// reads as ErrNotFound.
type ConversationRepository struct {
	store *store.Store
}

// NewConversationRepository creates a ConversationRepository.
func NewConversationRepository(s *store.Store) *ConversationRepository {
	return &ConversationRepository{store: s}
}

// List returns the user's conversations, most recently updated first, with the
// total before paging.
func (r *ConversationRepository) List(ctx context.Context, filter models.ConversationFilter) ([]models.Conversation, int, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, 0, err
	}
	var matched []models.Conversation
	err := r.store.View(func(d *store.Document) error {
		for _, c := range d.Conversations {
			if c.UserID != filter.UserID {
				continue
			}
			if filter.CharacterID != "" && c.CharacterID != filter.CharacterID {
				continue
			}
			matched = append(matched, c)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	return page(matched, filter.Offset, filter.Limit), len(matched), nil
}

// Find returns the conversation owned by userID.
func (r *ConversationRepository) Find(ctx context.Context, id, userID string) (*models.Conversation, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var found *models.Conversation
	err := r.store.View(func(d *store.Document) error {
		idx := d.ConversationIndex(id, userID)
		if idx < 0 {
			return ErrNotFound
		}
		c := d.Conversations[idx]
		found = &c
		return nil
	})
	return found, err
}

// Create inserts a conversation.
func (r *ConversationRepository) Create(ctx context.Context, c *models.Conversation) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt
	return r.store.Update(func(d *store.Document) error {
		d.Conversations = append(d.Conversations, *c)
		return nil
	})
}

// Delete removes the conversation and its messages. It reports whether a
// conversation owned by userID existed.
func (r *ConversationRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	var removed bool
	err := r.store.Update(func(d *store.Document) error {
		idx := d.ConversationIndex(id, userID)
		if idx < 0 {
			return nil
		}
		d.Conversations = append(d.Conversations[:idx], d.Conversations[idx+1:]...)
		d.Messages = keepIf(d.Messages, func(m models.Message) bool { return m.ConversationID != id })
		removed = true
		return nil
	})
	return removed, err
}

// Messages returns a page of the conversation's messages in timestamp order
// and the total count.
func (r *ConversationRepository) Messages(ctx context.Context, id, userID string, limit, offset int) ([]models.Message, int, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, 0, err
	}
	var all []models.Message
	err := r.store.View(func(d *store.Document) error {
		if d.ConversationIndex(id, userID) < 0 {
			return ErrNotFound
		}
		all = messagesOf(d, id)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page(all, offset, limit), len(all), nil
}

// Recent returns the last n messages of the conversation in timestamp order.
func (r *ConversationRepository) Recent(ctx context.Context, id, userID string, n int) ([]models.Message, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var recent []models.Message
	err := r.store.View(func(d *store.Document) error {
		if d.ConversationIndex(id, userID) < 0 {
			return ErrNotFound
		}
		all := messagesOf(d, id)
		if n > 0 && len(all) > n {
			all = all[len(all)-n:]
		}
		recent = all
		return nil
	})
	return recent, err
}

// AddMessage appends msg to a conversation owned by userID and bumps the
// conversation's counters in the same write.
func (r *ConversationRepository) AddMessage(ctx context.Context, userID string, msg *models.Message) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return r.store.Update(func(d *store.Document) error {
		idx := d.ConversationIndex(msg.ConversationID, userID)
		if idx < 0 {
			return ErrNotFound
		}
		d.Messages = append(d.Messages, *msg)
		c := &d.Conversations[idx]
		c.MessageCount++
		at := msg.Timestamp
		c.UpdatedAt = at
		c.LastMessageAt = &at
		return nil
	})
}

func messagesOf(d *store.Document, conversationID string) []models.Message {
	var out []models.Message
	for _, m := range d.Messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
