package tui

import (
	"fmt"
	"strings"

	"github.com/adithyag/studytoolsgpt/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Colors
const (
	colorFg       = "#F8FAFC"
	colorFgMuted  = "#94A3B8"
	colorPrimary  = "#3B82F6"
	colorAccent   = "#22C55E"
	colorWarn     = "#F59E0B"
	colorBorder   = "#334155"
	colorHeadline = "#E2E8F0"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorPrimary)).
			Bold(true)

	taglineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted))

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorPrimary)).
				Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted)).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarn))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted))

	docTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorHeadline)).
			Bold(true).
			Underline(true)

	docHeadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true)

	docBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorPrimary)).
			Bold(true)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// renderMessage formats one chat entry.
func renderMessage(m domain.Message, width int) string {
	label := assistantLabelStyle.Render("StudyToolsGPT")
	if m.Role == domain.RoleUser {
		label = userLabelStyle.Render("You")
	}

	var body string
	switch {
	case m.Pending:
		body = pendingStyle.Render(m.Text)
	case m.Kind == domain.KindStructured && m.Document != nil:
		body = renderDocument(m.Document, width)
	default:
		body = m.Text
	}

	return label + "\n" + body
}

// renderDocument lays out a cheat sheet for the terminal.
func renderDocument(doc *domain.StructuredDocument, width int) string {
	var b strings.Builder

	b.WriteString(docTitleStyle.Render(doc.Title))
	b.WriteString("\n")
	if doc.Overview != "" {
		b.WriteString(doc.Overview)
		b.WriteString("\n")
	}

	for _, s := range doc.Sections {
		b.WriteString("\n")
		b.WriteString(docHeadingStyle.Render(s.Heading))
		b.WriteString("\n")
		for _, bullet := range s.Bullets {
			b.WriteString("  • " + bullet + "\n")
		}
	}

	if len(doc.Formulas) > 0 {
		b.WriteString("\n")
		b.WriteString(docHeadingStyle.Render("Formulas"))
		b.WriteString("\n")
		for _, f := range doc.Formulas {
			line := fmt.Sprintf("  %s: %s", f.Name, f.Expression)
			if f.Note != nil && *f.Note != "" {
				line += taglineStyle.Render("  (" + *f.Note + ")")
			}
			b.WriteString(line + "\n")
		}
	}

	if len(doc.CommonMistakes) > 0 {
		b.WriteString("\n")
		b.WriteString(docHeadingStyle.Render("Common mistakes"))
		b.WriteString("\n")
		for _, mistake := range doc.CommonMistakes {
			b.WriteString("  ✗ " + mistake + "\n")
		}
	}

	for i, ex := range doc.MiniExamples {
		b.WriteString("\n")
		b.WriteString(docHeadingStyle.Render(fmt.Sprintf("Example %d", i+1)))
		b.WriteString("\n  " + ex.Prompt + "\n")
		for j, step := range ex.Steps {
			b.WriteString(fmt.Sprintf("    %d. %s\n", j+1, step))
		}
		b.WriteString("  ⇒ " + ex.Answer + "\n")
	}

	if len(doc.Practice) > 0 {
		b.WriteString("\n")
		b.WriteString(docHeadingStyle.Render("Practice"))
		b.WriteString("\n")
		for _, p := range doc.Practice {
			b.WriteString("  Q: " + p.Question + "\n")
			b.WriteString("  A: " + p.Answer + "\n")
		}
	}

	boxWidth := width - 4
	if boxWidth > 100 {
		boxWidth = 100
	}
	if boxWidth < 20 {
		return strings.TrimRight(b.String(), "\n")
	}
	return docBoxStyle.Width(boxWidth).Render(strings.TrimRight(b.String(), "\n"))
}
