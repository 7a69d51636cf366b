// Package conversation keeps the ordered chat transcript and runs assistant
// turns against a streaming transport.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/worktracker75-ui/datanav/internal/ai"
	"github.com/worktracker75-ui/datanav/internal/directive"
	"github.com/worktracker75-ui/datanav/internal/utils"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Directive is set on assistant messages
// whose completed text carries a query block.
type Message struct {
	ID        string               `json:"id"`
	Role      Role                 `json:"role"`
	Content   string               `json:"content"`
	Directive *directive.Directive `json:"directive,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// Conversation is an append-only transcript safe for concurrent readers.
// Assistant messages are updated in place by id while they stream.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

func New() *Conversation {
	return &Conversation{now: time.Now}
}

// Messages returns a snapshot of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Get returns the message with the given id.
func (c *Conversation) Get(id string) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.messages[i], true
	}
	return Message{}, false
}

// LastAssistant returns the most recent assistant message.
func (c *Conversation) LastAssistant() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// Clear drops every message.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()
}

func (c *Conversation) add(role Role, content string) Message {
	m := Message{ID: uuid.NewString(), Role: role, Content: content, Timestamp: c.now()}
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
	return m
}

func (c *Conversation) indexOf(id string) int {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// appendDelta extends the content of message id.
func (c *Conversation) appendDelta(id, delta string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.messages[i].Content += delta
	}
}

func (c *Conversation) finalize(id string) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return Message{}
	}
	if d, ok := directive.Extract(c.messages[i].Content); ok {
		c.messages[i].Directive = &d
	}
	return c.messages[i]
}

func (c *Conversation) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.messages = append(c.messages[:i], c.messages[i+1:]...)
	}
}

// history renders the transcript as transport messages, skipping empty
// assistant entries.
func (c *Conversation) history() []ai.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ai.Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role == RoleAssistant && strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, ai.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// Options configures a Runner.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Runner sends turns of one conversation to the assistant.
type Runner struct {
	conv     *Conversation
	streamer ai.Streamer
	opts     Options
}

func NewRunner(conv *Conversation, s ai.Streamer, opts Options) *Runner {
	if opts.Model == "" {
		opts.Model = ai.DefaultModel
	}
	return &Runner{conv: conv, streamer: s, opts: opts}
}

// Conversation returns the transcript the runner writes to.
func (r *Runner) Conversation() *Conversation { return r.conv }

// Send appends the user message, creates the assistant message before the
// first byte arrives and grows it in place as deltas stream in. onDelta,
// when set, sees every delta after it is merged. On a transport failure the
// partial assistant message is removed and the error returned; the user
// message stays. A cancelled turn keeps what was already merged.
func (r *Runner) Send(ctx context.Context, system, content string, onDelta func(id, delta string)) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, errors.New("message is empty")
	}
	r.conv.add(RoleUser, content)
	msgs := append([]ai.Message{{Role: "system", Content: system}}, r.conv.history()...)
	assistant := r.conv.add(RoleAssistant, "")

	logger := log.With().Str("message_id", assistant.ID).Str("model", r.opts.Model).Logger()
	logger.Debug().Interface("tokens", utils.TokenBreakdown(map[string]string{"system": system, "user": content})).
		Int("history", len(msgs)-1).Msg("turn start")
	start := time.Now()

	deltas := 0
	err := r.streamer.StreamChat(ctx, ai.ChatRequest{
		Model:       r.opts.Model,
		Messages:    msgs,
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
	}, func(delta string) {
		deltas++
		r.conv.appendDelta(assistant.ID, delta)
		if onDelta != nil {
			onDelta(assistant.ID, delta)
		}
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Info().Int("deltas", deltas).Msg("turn cancelled")
			return r.conv.finalize(assistant.ID), err
		}
		r.conv.remove(assistant.ID)
		logger.Error().Err(err).Int("deltas", deltas).Msg("turn failed")
		return Message{}, fmt.Errorf("assistant turn: %w", err)
	}
	m := r.conv.finalize(assistant.ID)
	logger.Info().Int("deltas", deltas).Int("chars", len(m.Content)).Bool("directive", m.Directive != nil).
		Dur("elapsed", time.Since(start)).Msg("turn complete")
	return m, nil
}
