// Package counselor resolves a student's message into a reply: it scores the
// message against the knowledge table, answers small talk directly, and asks
// an optional text generator for everything else, falling back to the
// matched entry or a fixed default text.
package counselor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmstudyabroad/counselor-bot/internal/ctxutil"
	"github.com/mmstudyabroad/counselor-bot/internal/knowledge"
)

// Generator produces a reply for userText under the given system role.
type Generator interface {
	Generate(ctx context.Context, systemRole, userText string) (string, error)
}

// Gate decides whether the user identified by key may trigger generation.
// *ratelimit.KeyedLimiter implements it.
type Gate interface {
	Allow(key string) bool
}

// Source tells where a reply's text came from.
type Source string

// Reply sources.
const (
	SourceFallback  Source = "fallback"
	SourceGeneric   Source = "generic"
	SourceGenerated Source = "generated"
	SourceKnowledge Source = "knowledge"
)

// Reply is a resolved answer. Text is never empty.
type Reply struct {
	Text    string
	Source  Source
	EntryID string  // Matched entry, empty when nothing matched
	Score   float64 // Best match score
}

// Counselor resolves user messages. It is safe for concurrent use.
type Counselor struct {
	kb        *knowledge.Base
	generator Generator
	gate      Gate
	timeout   time.Duration
	fallback  string
}

// Option configures a Counselor.
type Option func(*Counselor)

// WithGenerator enables reply generation. A nil generator leaves it disabled.
func WithGenerator(g Generator) Option {
	return func(c *Counselor) {
		c.generator = g
	}
}

// WithGate limits how often a user may trigger generation.
func WithGate(g Gate) Option {
	return func(c *Counselor) {
		c.gate = g
	}
}

// WithTimeout bounds a single generation call.
func WithTimeout(d time.Duration) Option {
	return func(c *Counselor) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// DefaultTimeout bounds generation when no timeout option is given.
const DefaultTimeout = 20 * time.Second

// New creates a Counselor over kb. A nil kb means the built-in table.
func New(kb *knowledge.Base, opts ...Option) *Counselor {
	if kb == nil {
		kb = knowledge.Default()
	}
	c := &Counselor{
		kb:       kb,
		timeout:  DefaultTimeout,
		fallback: knowledge.DefaultFallback,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Knowledge returns the table the counselor matches against.
func (c *Counselor) Knowledge() *knowledge.Base {
	return c.kb
}

// GenerationEnabled reports whether a generator is configured.
func (c *Counselor) GenerationEnabled() bool {
	return c.generator != nil
}

// Resolve returns the reply text for text.
func (c *Counselor) Resolve(ctx context.Context, text string) string {
	return c.Reply(ctx, text).Text
}

// Reply resolves text. It never fails: generation problems are logged and
// the matched entry's answer or the default text is used instead.
//
// Order of precedence:
//  1. empty text after normalization: default text
//  2. best entry is generic: its answer, without generation
//  3. generated text, with the best entry's answer as reference when one matched
//  4. best entry's answer
//  5. default text
func (c *Counselor) Reply(ctx context.Context, text string) Reply {
	q := NewQuery(text)
	if q.Empty() {
		return Reply{Text: c.fallback, Source: SourceFallback}
	}

	m := BestMatch(q, c.kb)
	reply := Reply{Score: m.Score}
	if m.Found() {
		reply.EntryID = m.Entry.ID
	}

	if m.Found() && m.Entry.Generic {
		if answer := ToPlainText(m.Entry.Answer); answer != "" {
			reply.Text, reply.Source = answer, SourceGeneric
			return reply
		}
	}

	var reference string
	if m.Found() {
		reference = m.Entry.Answer
	}
	if generated := c.generate(ctx, text, reference); generated != "" {
		reply.Text, reply.Source = generated, SourceGenerated
		return reply
	}

	if m.Found() {
		if answer := ToPlainText(m.Entry.Answer); answer != "" {
			reply.Text, reply.Source = answer, SourceKnowledge
			return reply
		}
	}

	reply.Text, reply.Source = c.fallback, SourceFallback
	return reply
}

// generate returns plain generated text, or "" when generation is disabled,
// denied, failed or produced nothing.
func (c *Counselor) generate(ctx context.Context, text, reference string) string {
	if c.generator == nil {
		return ""
	}
	if c.gate != nil {
		if key := ctxutil.GetUserID(ctx); key != "" && !c.gate.Allow(key) {
			slog.InfoContext(ctx, "Reply generation skipped: user over generation limit")
			return ""
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.generator.Generate(genCtx, SystemRole(reference), text)
	if err != nil {
		slog.WarnContext(ctx, "Reply generation failed",
			"error", err,
			"has_reference", reference != "")
		return ""
	}
	return ToPlainText(strings.TrimSpace(out))
}
