package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAI completes through the Gemini API. Quota exhaustion degrades to the
// mock responder; other rate limiting surfaces as ErrRateLimited.
type GenAI struct {
	models   contentGenerator
	fallback Completer
	cfg      Config
	logger   *zap.Logger
}

// NewGenAI connects a Gemini client. It fails without an API key.
func NewGenAI(ctx context.Context, cfg Config, logger *zap.Logger) (*GenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing AI_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGenAI(client.Models, cfg, logger), nil
}

func newGenAI(models contentGenerator, cfg Config, logger *zap.Logger) *GenAI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenAI{models: models, fallback: NewMock(), cfg: cfg.withDefaults(), logger: logger}
}

// New returns the Gemini completer, or the mock one when no key is set, mock
// replies are forced or the client cannot be created.
func New(ctx context.Context, cfg Config, logger *zap.Logger) Completer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UseMock || cfg.APIKey == "" {
		logger.Info("chat completer ready", zap.String("model", MockModel))
		return NewMock()
	}
	g, err := NewGenAI(ctx, cfg, logger)
	if err != nil {
		logger.Warn("genai unavailable, using mock replies", zap.Error(err))
		return NewMock()
	}
	logger.Info("chat completer ready", zap.String("model", g.cfg.Model))
	return g
}

// Complete sends the recent context as the system instruction and the new
// message as the user turn.
func (g *GenAI) Complete(ctx context.Context, req Request) (Reply, error) {
	history := ContextWindow(req.History, g.cfg.MaxContextMessages, g.cfg.MaxMessageLength)
	system := SystemPrompt(req.Persona, history)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.cfg.Model,
		[]*genai.Content{genai.NewContentFromText(req.Message, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			MaxOutputTokens:   int32(g.cfg.MaxTokens),
			Temperature:       genai.Ptr(g.cfg.Temperature),
			TopP:              genai.Ptr(g.cfg.TopP),
		})
	took := time.Since(start)
	if err != nil {
		switch classify(err) {
		case quotaExhausted:
			g.logger.Warn("genai quota exhausted, using mock reply", zap.String("persona", req.Persona.ID), zap.Error(err))
			return g.fallback.Complete(ctx, req)
		case rateLimited:
			return Reply{}, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return Reply{}, fmt.Errorf("generate content: %w", err)
	}

	text := ""
	if resp != nil {
		text = resp.Text()
	}
	if strings.TrimSpace(text) == "" {
		return Reply{}, errors.New("generate content: empty response")
	}

	reply := Reply{Content: PostProcess(text), Model: g.cfg.Model, Took: took}
	if resp.ModelVersion != "" {
		reply.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		reply.Tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	g.logger.Debug("genai reply generated",
		zap.String("persona", req.Persona.ID),
		zap.String("model", reply.Model),
		zap.Int("tokens", reply.Tokens),
		zap.Duration("took", took),
	)
	return reply, nil
}

type failure int

const (
	otherFailure failure = iota
	rateLimited
	quotaExhausted
)

func classify(err error) failure {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
			return quotaExhausted
		}
		return rateLimited
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"):
		return quotaExhausted
	case strings.Contains(msg, "rate limit"):
		return rateLimited
	}
	return otherFailure
}
