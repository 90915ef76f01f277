package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockModel labels replies produced without a provider.
const MockModel = "mock"

var mockTemplates = map[string][]string{
	"vicky": {
		"Oh wow!! Let's talk about %s, this is going to be fun ✨",
		"Honestly? %s sounds like a lucky break in disguise!",
		"I love that you brought up %s. Tell me more!",
	},
	"genie": {
		"Let me look at %s from a few angles and suggest a next step.",
		"Here is a simple way to think about %s.",
		"Good question. The core of %s comes down to one idea.",
	},
	"spike": {
		"No excuses! %s starts with one small move today.",
		"You asked about %s. Stop planning and do the first step now.",
		"%s? Good. Now commit to it.",
	},
}

// Mock answers from fixed per-persona templates. Unknown personas use the
// first persona's templates under their own name.
type Mock struct {
	now func() time.Time
}

// NewMock returns the offline responder.
func NewMock() *Mock {
	return &Mock{now: time.Now}
}

// Complete picks a template by message length so replies are stable.
func (m *Mock) Complete(ctx context.Context, req Request) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	start := m.now()
	message := strings.TrimSpace(req.Message)
	templates, known := mockTemplates[strings.ToLower(req.Persona.ID)]
	if !known {
		templates = mockTemplates["vicky"]
	}
	content := fmt.Sprintf(templates[len([]rune(message))%len(templates)], message)
	if !known && req.Persona.Name != "" {
		content = req.Persona.Name + ": " + content
	}
	return Reply{Content: content, Model: MockModel, Took: m.now().Sub(start)}, nil
}
