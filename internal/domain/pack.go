package domain

import (
	"time"
)

// Pack is a saved snapshot of a conversation and its mode. Packs have their
// own lifecycle: created on explicit save, updated on re-save, removed on
// explicit delete.
type Pack struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Mode      string    `json:"mode"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasUserMessage reports whether the pack contains at least one message
// authored by the learner. Packs holding only the seeded greeting are not
// worth saving.
func (p *Pack) HasUserMessage() bool {
	for _, m := range p.Messages {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}
