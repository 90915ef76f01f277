package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWindowKeepsRecentTurnsAndTruncates(t *testing.T) {
	history := []Turn{
		{FromUser: true, Content: "one"},
		{FromUser: false, Content: "two"},
		{FromUser: true, Content: strings.Repeat("가", 10)},
	}

	window := ContextWindow(history, 2, 4)
	require.Len(t, window, 2)
	assert.Equal(t, "two", window[0].Content)
	assert.Equal(t, "가가가가...", window[1].Content)
	assert.Equal(t, strings.Repeat("가", 10), history[2].Content)
}

func TestSystemPromptIncludesContext(t *testing.T) {
	prompt := SystemPrompt(Persona{SystemPrompt: "You are Genie."}, []Turn{
		{FromUser: true, Content: "hi"},
		{FromUser: false, Content: "hello"},
	})

	assert.True(t, strings.HasPrefix(prompt, "You are Genie.\n\nCurrent conversation context:\nUser: hi\nAI: hello\n\n"))
	assert.Contains(t, prompt, "under 200 characters")
}

func TestPostProcess(t *testing.T) {
	assert.Equal(t, "wow!! great", PostProcess("  wow!!!!! great  "))
	assert.Equal(t, "haha", PostProcess("hahahaha"))
	assert.Equal(t, FallbackReply, PostProcess("   "))

	long := PostProcess(strings.Repeat("ab c", 500))
	assert.Equal(t, 1503, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestMockIsStablePerPersona(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	first, err := m.Complete(ctx, Request{Persona: Persona{ID: "spike"}, Message: "running"})
	require.NoError(t, err)
	again, err := m.Complete(ctx, Request{Persona: Persona{ID: "SPIKE"}, Message: "running"})
	require.NoError(t, err)
	assert.Equal(t, first.Content, again.Content)
	assert.Contains(t, first.Content, "running")
	assert.Equal(t, MockModel, first.Model)

	custom, err := m.Complete(ctx, Request{Persona: Persona{ID: "c-1", Name: "Pirate"}, Message: "ahoy"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(custom.Content, "Pirate: "))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Complete(cancelled, Request{Message: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
