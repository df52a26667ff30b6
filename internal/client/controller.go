package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adithyag/studytoolsgpt/internal/domain"
	"github.com/google/uuid"
)

// DefaultMaxMessageLen is the character ceiling for a single send.
const DefaultMaxMessageLen = 8000

// placeholderText is shown while a response is pending.
const placeholderText = "Thinking..."

// greetingText seeds every new conversation.
const greetingText = "Hi! I'm StudyToolsGPT. Give me a topic and I'll help you study it."

var (
	// ErrBusy reports a send attempted while another request is in flight.
	ErrBusy = errors.New("a request is already in flight")
	// ErrEmptyMessage reports a send with no content after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrMessageTooLong reports a send exceeding the character ceiling.
	ErrMessageTooLong = errors.New("message is too long")
	// ErrNothingToSave reports a pack save before any user message exists.
	ErrNothingToSave = errors.New("nothing to save yet")
)

// Responder produces the reply for one conversation turn.
type Responder interface {
	Respond(ctx context.Context, modeLabel string, turns []domain.ChatTurn) (*Reply, error)
}

// Request is one staged send. It snapshots everything the network call
// needs at Send time so nothing mutable is shared across threads.
type Request struct {
	Generation    uint64
	PlaceholderID string
	Context       context.Context
	Mode          string
	Turns         []domain.ChatTurn
}

// Outcome is the settled result of a Request, ready to be applied on the
// UI thread.
type Outcome struct {
	Generation    uint64
	PlaceholderID string
	Reply         *Reply
	Err           error
}

// ApplyStatus classifies what Apply did with an outcome.
type ApplyStatus int

const (
	// ApplyReplaced means the placeholder was replaced with final content.
	ApplyReplaced ApplyStatus = iota
	// ApplyFailed means the placeholder was replaced with an error message.
	ApplyFailed
	// ApplyStale means a newer request had started; the outcome was dropped.
	ApplyStale
	// ApplyCancelled means the request was aborted; nothing changed.
	ApplyCancelled
)

// Controller owns the conversation state and the single-in-flight-request
// invariant. All mutation happens on the caller's event loop: Send and
// Apply are synchronous; only Do (which touches no mutable state) runs off
// that loop.
type Controller struct {
	responder  Responder
	mode       string
	maxLen     int
	messages   []domain.Message
	generation uint64
	sending    bool
	cancel     context.CancelFunc
}

// NewController creates a controller with a seeded greeting.
func NewController(responder Responder, mode string) *Controller {
	c := &Controller{
		responder: responder,
		mode:      mode,
		maxLen:    DefaultMaxMessageLen,
	}
	c.seed()
	return c
}

func (c *Controller) seed() {
	c.messages = []domain.Message{{
		ID:   uuid.NewString(),
		Role: domain.RoleAssistant,
		Kind: domain.KindText,
		Text: greetingText,
	}}
}

// Messages returns a copy of the conversation.
func (c *Controller) Messages() []domain.Message {
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Sending reports whether a request is in flight.
func (c *Controller) Sending() bool {
	return c.sending
}

// Mode returns the active mode label.
func (c *Controller) Mode() string {
	return c.mode
}

// SetMode changes the active mode label for subsequent sends.
func (c *Controller) SetMode(mode string) {
	c.mode = mode
}

// Generation returns the current request generation.
func (c *Controller) Generation() uint64 {
	return c.generation
}

// Send stages a new request: the user message and a pending placeholder
// are appended immediately and the generation is bumped. The returned
// Request must be executed with Do and its Outcome handed to Apply.
//
// A send while another request is in flight is rejected with ErrBusy; it
// never issues a second concurrent call.
func (c *Controller) Send(text string) (*Request, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(trimmed)) > c.maxLen {
		return nil, fmt.Errorf("%w: %d characters (max %d)", ErrMessageTooLong, len([]rune(trimmed)), c.maxLen)
	}
	if c.sending {
		return nil, ErrBusy
	}

	// A prior call can still be outstanding after Abort; cancel it before
	// issuing a new one, and let this send take over its placeholder slot.
	if c.cancel != nil {
		c.cancel()
	}
	c.prunePending()
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.generation++
	c.sending = true

	userMsg := domain.Message{
		ID:   uuid.NewString(),
		Role: domain.RoleUser,
		Kind: domain.KindText,
		Text: trimmed,
	}
	placeholder := domain.Message{
		ID:      uuid.NewString(),
		Role:    domain.RoleAssistant,
		Kind:    domain.KindText,
		Text:    placeholderText,
		Pending: true,
	}
	c.messages = append(c.messages, userMsg, placeholder)

	return &Request{
		Generation:    c.generation,
		PlaceholderID: placeholder.ID,
		Context:       ctx,
		Mode:          c.mode,
		Turns:         c.historyTurns(),
	}, nil
}

// prunePending drops placeholders orphaned by an aborted request.
func (c *Controller) prunePending() {
	kept := c.messages[:0]
	for _, m := range c.messages {
		if !m.Pending {
			kept = append(kept, m)
		}
	}
	c.messages = kept
}

// historyTurns maps the settled conversation to the wire shape. Pending
// placeholders are skipped; structured messages contribute their title so
// follow-up questions keep context.
func (c *Controller) historyTurns() []domain.ChatTurn {
	turns := make([]domain.ChatTurn, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Pending {
			continue
		}
		text := m.Text
		if m.Kind == domain.KindStructured && m.Document != nil {
			text = "Cheat sheet: " + m.Document.Title
		}
		turns = append(turns, domain.ChatTurn{Role: m.Role, Text: text})
	}
	return turns
}

// Do executes the network call for a staged request. It is the only
// controller method safe to run off the event loop; it reads nothing but
// the request snapshot. Cancellation is honored both before the call is
// issued and by the transport itself.
func (c *Controller) Do(req *Request) Outcome {
	out := Outcome{Generation: req.Generation, PlaceholderID: req.PlaceholderID}
	if err := req.Context.Err(); err != nil {
		out.Err = err
		return out
	}
	out.Reply, out.Err = c.responder.Respond(req.Context, req.Mode, req.Turns)
	return out
}

// Apply settles an outcome. Stale outcomes (from a superseded generation)
// and cancelled requests are dropped without touching the conversation;
// everything else replaces the placeholder, matched by ID, in place.
func (c *Controller) Apply(out Outcome) ApplyStatus {
	if out.Generation != c.generation {
		return ApplyStale
	}

	c.sending = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if errors.Is(out.Err, context.Canceled) {
		return ApplyCancelled
	}

	if out.Err != nil {
		c.replacePlaceholder(out.PlaceholderID, domain.Message{
			ID:   out.PlaceholderID,
			Role: domain.RoleAssistant,
			Kind: domain.KindText,
			Text: "Something went wrong: " + out.Err.Error(),
		})
		return ApplyFailed
	}

	final := domain.Message{
		ID:   out.PlaceholderID,
		Role: domain.RoleAssistant,
		Kind: out.Reply.Kind,
	}
	if out.Reply.Kind == domain.KindStructured {
		final.Document = out.Reply.Document
	} else {
		final.Text = out.Reply.Text
	}
	c.replacePlaceholder(out.PlaceholderID, final)
	return ApplyReplaced
}

// replacePlaceholder swaps the message with the given ID in place. Matching
// by ID, not index, keeps the replacement safe against concurrent edits to
// the list.
func (c *Controller) replacePlaceholder(id string, final domain.Message) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i] = final
			return
		}
	}
}

// Abort cancels the in-flight request, if any. The generation bump
// invalidates the outcome even when the abort races with a response
// arriving; no error is shown and the placeholder is left for the next
// send to prune.
func (c *Controller) Abort() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.sending = false
}

// Reset starts a new conversation. Any outstanding request is cancelled
// and its generation invalidated so a slow response cannot overwrite the
// fresh conversation.
func (c *Controller) Reset() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.sending = false
	c.seed()
}

// LoadPack replaces the conversation with a saved pack. Like Reset, it
// invalidates any outstanding request.
func (c *Controller) LoadPack(pack *domain.Pack) {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.sending = false
	c.mode = pack.Mode
	c.messages = make([]domain.Message, len(pack.Messages))
	copy(c.messages, pack.Messages)
	if len(c.messages) == 0 {
		c.seed()
	}
}

// BuildPack snapshots the conversation as a pack. id may name an existing
// pack to re-save; an empty id creates a new one. Conversations without a
// user-authored message are rejected.
func (c *Controller) BuildPack(id, title string) (*domain.Pack, error) {
	now := time.Now()
	pack := &domain.Pack{
		ID:        id,
		Title:     strings.TrimSpace(title),
		Mode:      c.mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range c.messages {
		if m.Pending {
			continue
		}
		pack.Messages = append(pack.Messages, m)
	}
	if !pack.HasUserMessage() {
		return nil, ErrNothingToSave
	}
	if pack.ID == "" {
		pack.ID = uuid.NewString()
	}
	if pack.Title == "" {
		pack.Title = defaultPackTitle(pack.Messages)
	}
	return pack, nil
}

// defaultPackTitle derives a title from the first user message.
func defaultPackTitle(messages []domain.Message) string {
	for _, m := range messages {
		if m.Role != domain.RoleUser {
			continue
		}
		title := m.Text
		if len([]rune(title)) > 48 {
			title = string([]rune(title)[:48]) + "…"
		}
		return title
	}
	return "Untitled pack"
}
