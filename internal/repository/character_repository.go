package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/store"
)

// CharacterRepository provides access to the characters collection.
type CharacterRepository struct {
	store *store.Store
}

// NewCharacterRepository creates a CharacterRepository.
func NewCharacterRepository(s *store.Store) *CharacterRepository {
	return &CharacterRepository{store: s}
}

// List returns the characters visible to filter.UserID in store order, with
// the total before paging. Search matches name, description and personality
// case-insensitively.
func (r *CharacterRepository) List(ctx context.Context, filter models.CharacterFilter) ([]models.Character, int, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, 0, err
	}
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []models.Character
	err := r.store.View(func(d *store.Document) error {
		for _, c := range d.Characters {
			if !c.VisibleTo(filter.UserID) {
				continue
			}
			if term != "" && !matchesCharacter(c, term) {
				continue
			}
			matched = append(matched, c)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page(matched, filter.Offset, filter.Limit), len(matched), nil
}

func matchesCharacter(c models.Character, term string) bool {
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Description), term) ||
		strings.Contains(strings.ToLower(c.Personality), term)
}

// FindVisible returns the character if userID may see it.
func (r *CharacterRepository) FindVisible(ctx context.Context, id, userID string) (*models.Character, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var found *models.Character
	err := r.store.View(func(d *store.Document) error {
		idx := d.CharacterIndex(id)
		if idx < 0 || !d.Characters[idx].VisibleTo(userID) {
			return ErrNotFound
		}
		c := d.Characters[idx]
		found = &c
		return nil
	})
	return found, err
}

// Create inserts a custom character.
func (r *CharacterRepository) Create(ctx context.Context, c *models.Character) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt
	return r.store.Update(func(d *store.Document) error {
		if d.CharacterIndex(c.ID) >= 0 {
			return ErrDuplicate
		}
		d.Characters = append(d.Characters, *c)
		return nil
	})
}

// Update applies mutate to a character visible to userID. The mutation sees
// the stored record and may refuse it.
func (r *CharacterRepository) Update(ctx context.Context, id, userID string, mutate func(*models.Character) error) (*models.Character, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var updated models.Character
	err := r.store.Update(func(d *store.Document) error {
		idx := d.CharacterIndex(id)
		if idx < 0 || !d.Characters[idx].VisibleTo(userID) {
			return ErrNotFound
		}
		c := &d.Characters[idx]
		if err := mutate(c); err != nil {
			return err
		}
		c.UpdatedAt = time.Now().UTC()
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a character visible to userID after allow approves it.
// Conversations with the character are kept.
func (r *CharacterRepository) Delete(ctx context.Context, id, userID string, allow func(models.Character) error) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return r.store.Update(func(d *store.Document) error {
		idx := d.CharacterIndex(id)
		if idx < 0 || !d.Characters[idx].VisibleTo(userID) {
			return ErrNotFound
		}
		if allow != nil {
			if err := allow(d.Characters[idx]); err != nil {
				return err
			}
		}
		d.Characters = append(d.Characters[:idx], d.Characters[idx+1:]...)
		return nil
	})
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]T{}, items[offset:end]...)
}
