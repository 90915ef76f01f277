// Package llm generates persona replies, either through Gemini or with a
// canned offline responder.
package llm

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimited reports that the provider refused the call for rate reasons.
var ErrRateLimited = errors.New("llm: rate limit exceeded")

// FallbackReply is returned when the provider produced nothing usable.
const FallbackReply = "Sorry, I could not come up with a reply. Please try again."

const (
	maxReplyLength      = 1500
	truncationSuffix    = "..."
	replyLengthInPrompt = 200
)

// Persona is the character being played.
type Persona struct {
	ID           string
	Name         string
	SystemPrompt string
}

// Turn is one earlier message of the conversation.
type Turn struct {
	FromUser bool
	Content  string
}

// Request asks for the persona's reply to Message given History.
type Request struct {
	Persona Persona
	History []Turn
	Message string
}

// Reply is a generated answer.
type Reply struct {
	Content string
	Tokens  int
	Model   string
	Took    time.Duration
}

// Completer produces persona replies.
type Completer interface {
	Complete(ctx context.Context, req Request) (Reply, error)
}

// Config tunes prompt construction and the Gemini call.
type Config struct {
	APIKey             string
	Model              string
	MaxTokens          int
	Temperature        float32
	TopP               float32
	MaxContextMessages int
	MaxMessageLength   int
	Timeout            time.Duration
	UseMock            bool
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1500
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.TopP <= 0 {
		c.TopP = 0.9
	}
	if c.MaxContextMessages <= 0 {
		c.MaxContextMessages = 8
	}
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = 500
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// ContextWindow keeps the last limit turns, each cut to maxLen runes.
func ContextWindow(history []Turn, limit, maxLen int) []Turn {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]Turn, len(history))
	for i, t := range history {
		out[i] = Turn{FromUser: t.FromUser, Content: truncate(t.Content, maxLen)}
	}
	return out
}

// SystemPrompt combines the persona prompt with the recent conversation.
func SystemPrompt(p Persona, history []Turn) string {
	var b strings.Builder
	b.WriteString(p.SystemPrompt)
	b.WriteString("\n\nCurrent conversation context:\n")
	for i, t := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		if t.FromUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("AI: ")
		}
		b.WriteString(t.Content)
	}
	b.WriteString("\n\nReply to the user's message using the context above. Keep the answer under ")
	b.WriteString(strconv.Itoa(replyLengthInPrompt))
	b.WriteString(" characters.")
	return b.String()
}

// PostProcess cleans a raw model reply. Runs of three or more identical
// characters or character pairs shrink to two copies before the length cap.
// Blank output becomes FallbackReply.
func PostProcess(reply string) string {
	reply = truncate(squeezeRepeats(reply), maxReplyLength)
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return FallbackReply
	}
	return reply
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + truncationSuffix
}

func squeezeRepeats(s string) string {
	r := []rune(s)
	out := make([]rune, 0, len(r))
	for i := 0; i < len(r); {
		squeezed := false
		for unit := 1; unit <= 2; unit++ {
			if n := repeats(r, i, unit); n >= 3 {
				out = append(out, r[i:i+unit]...)
				out = append(out, r[i:i+unit]...)
				i += n * unit
				squeezed = true
				break
			}
		}
		if !squeezed {
			out = append(out, r[i])
			i++
		}
	}
	return string(out)
}

// repeats counts consecutive copies of r[i:i+unit] starting at i.
func repeats(r []rune, i, unit int) int {
	if i+unit > len(r) {
		return 0
	}
	n := 1
	for j := i + unit; j+unit <= len(r); j += unit {
		if !equalRunes(r[i:i+unit], r[j:j+unit]) {
			break
		}
		n++
	}
	return n
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
