package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/store"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
)

func migratedStore(t *testing.T) *store.Store {
	t.Helper()
	s := newStore(t)
	_, err := s.Migrate()
	require.NoError(t, err)
	return s
}

func TestCharacterListVisibilitySearchAndPaging(t *testing.T) {
	repo := NewCharacterRepository(migratedStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Character{Name: "Pirate Pete", Description: "sails the seas", CreatedBy: "u1", IsActive: true}))
	require.NoError(t, repo.Create(ctx, &models.Character{Name: "Hidden", Description: "other user", CreatedBy: "u2", IsActive: true}))

	all, total, err := repo.List(ctx, models.CharacterFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, all, 4)
	for _, c := range all {
		assert.NotEqual(t, "Hidden", c.Name)
	}

	found, total, err := repo.List(ctx, models.CharacterFilter{UserID: "u1", Search: "SEAS"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Pirate Pete", found[0].Name)

	paged, total, err := repo.List(ctx, models.CharacterFilter{UserID: "u1", Limit: 2, Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, paged, 1)

	empty, _, err := repo.List(ctx, models.CharacterFilter{UserID: "u1", Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCharacterUpdateAndDeleteAreScoped(t *testing.T) {
	repo := NewCharacterRepository(migratedStore(t))
	ctx := context.Background()
	c := &models.Character{Name: "Mine", CreatedBy: "u1", IsActive: true}
	require.NoError(t, repo.Create(ctx, c))

	_, err := repo.FindVisible(ctx, c.ID, "u2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Update(ctx, c.ID, "u2", func(*models.Character) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := repo.Update(ctx, c.ID, "u1", func(ch *models.Character) error {
		ch.Name = "Renamed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	refuse := func(ch models.Character) error {
		if ch.IsDefault {
			return appErrors.Clone(appErrors.ErrForbidden, "")
		}
		return nil
	}
	err = repo.Delete(ctx, "vicky", "u1", refuse)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	_, err = repo.FindVisible(ctx, "vicky", "u1")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, c.ID, "u1", refuse))
	assert.ErrorIs(t, repo.Delete(ctx, c.ID, "u1", refuse), ErrNotFound)
}

func TestConversationMessagesAndCounters(t *testing.T) {
	repo := NewConversationRepository(newStore(t))
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	older := &models.Conversation{UserID: "u1", CharacterID: "vicky", Title: "a", IsActive: true, CreatedAt: base}
	newer := &models.Conversation{UserID: "u1", CharacterID: "genie", Title: "b", IsActive: true, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, &models.Conversation{UserID: "u2", CharacterID: "vicky"}))

	for i, content := range []string{"third", "first", "second"} {
		offset := []time.Duration{3, 1, 2}[i] * time.Minute
		require.NoError(t, repo.AddMessage(ctx, "u1", &models.Message{
			ConversationID: older.ID,
			Type:           models.MessageTypeUser,
			Content:        content,
			Timestamp:      base.Add(offset),
		}))
	}
	assert.ErrorIs(t, repo.AddMessage(ctx, "u2", &models.Message{ConversationID: older.ID}), ErrNotFound)

	conv, err := repo.Find(ctx, older.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, conv.MessageCount)
	require.NotNil(t, conv.LastMessageAt)
	assert.True(t, conv.UpdatedAt.Equal(base.Add(2*time.Minute)))

	list, total, err := repo.List(ctx, models.ConversationFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, older.ID, list[0].ID)

	byChar, total, err := repo.List(ctx, models.ConversationFilter{UserID: "u1", CharacterID: "genie"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, newer.ID, byChar[0].ID)

	msgs, total, err := repo.Messages(ctx, older.ID, "u1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)

	recent, err := repo.Recent(ctx, older.ID, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[1].Content)

	_, _, err = repo.Messages(ctx, older.ID, "u2", 10, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationDeleteRemovesMessages(t *testing.T) {
	s := newStore(t)
	repo := NewConversationRepository(s)
	ctx := context.Background()
	conv := &models.Conversation{UserID: "u1", CharacterID: "vicky"}
	require.NoError(t, repo.Create(ctx, conv))
	require.NoError(t, repo.AddMessage(ctx, "u1", &models.Message{ConversationID: conv.ID, Content: "hi"}))

	removed, err := repo.Delete(ctx, conv.ID, "u2")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.Delete(ctx, conv.ID, "u1")
	require.NoError(t, err)
	assert.True(t, removed)
	st := s.Stats()
	assert.Zero(t, st.Conversations)
	assert.Zero(t, st.Messages)
}

func TestUserDeleteRemovesChatData(t *testing.T) {
	s := migratedStore(t)
	users := NewUserRepository(s)
	chars := NewCharacterRepository(s)
	convs := NewConversationRepository(s)
	ctx := context.Background()

	u := seedUser(t, users, "erin@example.com")
	require.NoError(t, chars.Create(ctx, &models.Character{Name: "Custom", CreatedBy: u.ID}))
	conv := &models.Conversation{UserID: u.ID, CharacterID: "vicky"}
	require.NoError(t, convs.Create(ctx, conv))
	require.NoError(t, convs.AddMessage(ctx, u.ID, &models.Message{ConversationID: conv.ID, Content: "hello"}))
	require.NoError(t, convs.Create(ctx, &models.Conversation{UserID: "someone-else", CharacterID: "vicky"}))

	require.NoError(t, users.Delete(ctx, u.ID))

	st := s.Stats()
	assert.Equal(t, 3, st.Characters)
	assert.Zero(t, st.CustomCharacters)
	assert.Equal(t, 1, st.Conversations)
	assert.Zero(t, st.Messages)
}
