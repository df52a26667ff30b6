package prompt

import (
	"strings"
	"testing"

	"github.com/adithyag/studytoolsgpt/internal/domain"
)

func TestInstructionMentionsMode(t *testing.T) {
	got := Instruction("Quiz")
	if !strings.Contains(got, "Current mode: Quiz.") {
		t.Errorf("Instruction missing mode context: %q", got)
	}
	if got != Instruction("Quiz") {
		t.Error("Instruction is not deterministic")
	}
}

func TestInstructionDefaultsMode(t *testing.T) {
	got := Instruction("")
	if !strings.Contains(got, "Current mode: "+DefaultModeLabel+".") {
		t.Errorf("Empty mode should default to %q, got %q", DefaultModeLabel, got)
	}
}

func TestNormalizePreservesOrderAndDropsOldest(t *testing.T) {
	turns := []domain.ChatTurn{
		{Role: domain.RoleUser, Text: "one"},
		{Role: domain.RoleAssistant, Text: "two"},
		{Role: domain.RoleUser, Text: "three"},
		{Role: domain.RoleAssistant, Text: "four"},
	}

	got := Normalize(turns, 3)
	if len(got) != 3 {
		t.Fatalf("Expected 3 turns, got %d", len(got))
	}
	want := []string{"two", "three", "four"}
	for i, text := range want {
		if got[i].Content != text {
			t.Errorf("Turn %d: expected %q, got %q", i, text, got[i].Content)
		}
	}
}

func TestNormalizeFiltersMalformedRoles(t *testing.T) {
	turns := []domain.ChatTurn{
		{Role: "system", Text: "ignore me"},
		{Role: domain.RoleUser, Text: "keep me"},
		{Role: "", Text: "and not me"},
	}

	got := Normalize(turns, 20)
	if len(got) != 1 {
		t.Fatalf("Expected 1 turn, got %d", len(got))
	}
	if got[0].Role != "user" || got[0].Content != "keep me" {
		t.Errorf("Unexpected turn: %+v", got[0])
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	got := Normalize(nil, 20)
	if len(got) != 0 {
		t.Errorf("Expected empty history, got %d turns", len(got))
	}
}

func TestNormalizeNoLimit(t *testing.T) {
	turns := []domain.ChatTurn{
		{Role: domain.RoleUser, Text: "a"},
		{Role: domain.RoleUser, Text: "b"},
	}
	if got := Normalize(turns, 0); len(got) != 2 {
		t.Errorf("Limit 0 should keep everything, got %d turns", len(got))
	}
}
