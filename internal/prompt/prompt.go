// Package prompt builds the developer instruction and normalizes chat
// history before it is sent upstream.
package prompt

import (
	"fmt"

	"github.com/adithyag/studytoolsgpt/internal/domain"
)

// DefaultModeLabel is used when a request does not name a mode.
const DefaultModeLabel = "Cheat Sheet"

// Instruction returns the fixed developer instruction for the given mode.
// Deterministic: the mode label is the only input. Structure constraints are
// attached to the upstream call separately, never embedded here.
func Instruction(modeLabel string) string {
	if modeLabel == "" {
		modeLabel = DefaultModeLabel
	}
	return fmt.Sprintf(
		"You are StudyToolsGPT, a study assistant. Current mode: %s. "+
			"Be concise and helpful. Prefer well-structured Markdown. "+
			"If the user provides a topic, produce study-ready output.",
		modeLabel,
	)
}

// Turn is the upstream role/content shape of a single history entry.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Normalize filters turns to well-formed user/assistant entries, keeps at
// most limit of the newest ones, and maps them to the upstream shape.
// Relative order is preserved; only the oldest excess entries are dropped.
// A limit <= 0 keeps everything.
func Normalize(turns []domain.ChatTurn, limit int) []Turn {
	kept := make([]domain.ChatTurn, 0, len(turns))
	for _, t := range turns {
		if t.WellFormed() {
			kept = append(kept, t)
		}
	}
	if limit > 0 && len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}

	out := make([]Turn, 0, len(kept))
	for _, t := range kept {
		out = append(out, Turn{Role: string(t.Role), Content: t.Text})
	}
	return out
}
