// Package domain contains core domain types for StudyToolsGPT.
package domain

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks a message authored by the learner.
	RoleUser Role = "user"
	// RoleAssistant marks a message authored by the assistant.
	RoleAssistant Role = "assistant"
)

// ValidRole reports whether r is a role accepted on the wire.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAssistant
}

// Kind discriminates the two response payload shapes.
type Kind string

const (
	// KindText is a free-text response.
	KindText Kind = "text"
	// KindStructured is a cheat-sheet document response.
	KindStructured Kind = "structured"
)

// Message is a single chat entry. Exactly one of Text or Document carries
// content, selected by Kind. ID must be unique within a conversation so a
// placeholder can be replaced in place once its response settles.
type Message struct {
	ID       string              `json:"id"`
	Role     Role                `json:"role"`
	Kind     Kind                `json:"kind"`
	Text     string              `json:"text,omitempty"`
	Document *StructuredDocument `json:"document,omitempty"`
	Pending  bool                `json:"-"`
}

// ChatTurn is the request-side wire shape of a conversation entry.
type ChatTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// WellFormed reports whether the turn may be forwarded upstream.
func (t ChatTurn) WellFormed() bool {
	return ValidRole(t.Role)
}
