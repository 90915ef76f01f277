package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func textResponse(text string, tokens int32) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{TotalTokenCount: tokens},
	}
}

func chatRequest() Request {
	return Request{
		Persona: Persona{ID: "genie", Name: "Genie", SystemPrompt: "You are Genie."},
		History: []Turn{{FromUser: true, Content: "earlier question"}},
		Message: "What is Go?",
	}
}

func TestGenAICompleteBuildsRequest(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("  Go is a language!!!!  ", 42)}
	g := newGenAI(gen, Config{Model: "gemini-test"}, nil)

	reply, err := g.Complete(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, "Go is a language!!", reply.Content)
	assert.Equal(t, 42, reply.Tokens)
	assert.Equal(t, "gemini-test", reply.Model)

	assert.Equal(t, "gemini-test", gen.model)
	require.Len(t, gen.contents, 1)
	assert.Equal(t, string(genai.RoleUser), gen.contents[0].Role)
	assert.Equal(t, "What is Go?", gen.contents[0].Parts[0].Text)
	require.NotNil(t, gen.config.SystemInstruction)
	assert.Contains(t, gen.config.SystemInstruction.Parts[0].Text, "User: earlier question")
	assert.Equal(t, int32(1500), gen.config.MaxOutputTokens)
	assert.InDelta(t, 0.7, *gen.config.Temperature, 0.0001)
}

func TestGenAIRateLimitAndQuota(t *testing.T) {
	gen := &fakeGenerator{err: genai.APIError{Code: http.StatusTooManyRequests, Message: "Too many requests"}}
	g := newGenAI(gen, Config{}, nil)

	_, err := g.Complete(context.Background(), chatRequest())
	assert.ErrorIs(t, err, ErrRateLimited)

	gen.err = genai.APIError{Code: http.StatusTooManyRequests, Message: "You exceeded your current quota"}
	reply, err := g.Complete(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, MockModel, reply.Model)
	assert.Contains(t, reply.Content, "What is Go?")
}

func TestGenAIFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection reset")}
	g := newGenAI(gen, Config{}, nil)

	_, err := g.Complete(context.Background(), chatRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)

	gen.err = nil
	gen.resp = textResponse("   ", 1)
	_, err = g.Complete(context.Background(), chatRequest())
	assert.Error(t, err)
}

func TestNewFallsBackToMock(t *testing.T) {
	c := New(context.Background(), Config{}, nil)
	_, ok := c.(*Mock)
	assert.True(t, ok)

	c = New(context.Background(), Config{APIKey: "key", UseMock: true}, nil)
	_, ok = c.(*Mock)
	assert.True(t, ok)

	_, err := NewGenAI(context.Background(), Config{}, nil)
	assert.Error(t, err)
}
