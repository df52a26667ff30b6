// Package tui implements the terminal chat UI for StudyToolsGPT.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adithyag/studytoolsgpt/internal/client"
	"github.com/adithyag/studytoolsgpt/internal/domain"
	"github.com/adithyag/studytoolsgpt/internal/store"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const storeTimeout = 5 * time.Second

// starterQuestions are shown until the learner sends something.
var starterQuestions = []string{
	"What is StudyToolsGPT?",
	"Make me a cheat sheet on derivatives",
	"Quiz me on the French Revolution",
}

type viewState int

const (
	viewChat viewState = iota
	viewPacks
)

// Model is the bubbletea application state. The lifecycle controller owns
// the conversation; the model owns everything screen-related.
type Model struct {
	controller *client.Controller
	packs      store.PackRepository

	input        textarea.Model
	state        viewState
	packList     []*domain.Pack
	packCursor   int
	loadedPackID string
	notice       string
	width        int
	height       int
	spinnerPos   int
}

// New creates the TUI model. repo may be nil when pack persistence is
// unavailable; saving is then disabled with a notice.
func New(controller *client.Controller, repo store.PackRepository) *Model {
	ta := textarea.New()
	ta.Placeholder = "Send a message"
	ta.Focus()
	ta.CharLimit = client.DefaultMaxMessageLen
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.Prompt = "▍ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	return &Model{
		controller: controller,
		packs:      repo,
		input:      ta,
		width:      80,
		height:     24,
	}
}

// Init initializes the TUI.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

type responseMsg struct {
	out client.Outcome
}

type spinMsg struct{}

type packsLoadedMsg struct {
	packs []*domain.Pack
	err   error
}

type packSavedMsg struct {
	title string
	err   error
}

type packDeletedMsg struct {
	err error
}

// Update handles UI events.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case responseMsg:
		switch m.controller.Apply(msg.out) {
		case client.ApplyStale, client.ApplyCancelled:
			// Dropped silently; a newer request owns the conversation.
		case client.ApplyFailed:
			m.notice = "The assistant could not answer; see the message above."
		default:
			m.notice = ""
		}
		return m, nil

	case spinMsg:
		if m.controller.Sending() {
			m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
			return m, m.spinCmd()
		}
		return m, nil

	case packsLoadedMsg:
		if msg.err != nil {
			m.notice = "Could not load saved packs: " + msg.err.Error()
			return m, nil
		}
		m.packList = msg.packs
		m.packCursor = 0
		m.state = viewPacks
		return m, nil

	case packSavedMsg:
		if msg.err != nil {
			m.notice = "Save failed: " + msg.err.Error()
		} else {
			m.notice = fmt.Sprintf("Saved pack %q", msg.title)
		}
		return m, nil

	case packDeletedMsg:
		if msg.err != nil {
			m.notice = "Delete failed: " + msg.err.Error()
			return m, nil
		}
		return m, m.loadPacksCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.state == viewPacks {
		return m.handlePackKey(msg)
	}

	switch msg.Type {
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyEsc:
		if m.controller.Sending() {
			m.controller.Abort()
			m.notice = "Request cancelled."
		}
		return m, nil
	case tea.KeyCtrlN:
		m.controller.Reset()
		m.loadedPackID = ""
		m.notice = ""
		return m, nil
	case tea.KeyCtrlS:
		return m.savePack()
	case tea.KeyCtrlO:
		if m.packs == nil {
			m.notice = "Pack storage is unavailable."
			return m, nil
		}
		return m, m.loadPacksCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handlePackKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.state = viewChat
	case "up", "k":
		if m.packCursor > 0 {
			m.packCursor--
		}
	case "down", "j":
		if m.packCursor < len(m.packList)-1 {
			m.packCursor++
		}
	case "enter":
		if m.packCursor < len(m.packList) {
			pack := m.packList[m.packCursor]
			m.controller.LoadPack(pack)
			m.loadedPackID = pack.ID
			m.state = viewChat
			m.notice = fmt.Sprintf("Loaded pack %q", pack.Title)
		}
	case "d":
		if m.packCursor < len(m.packList) {
			return m, m.deletePackCmd(m.packList[m.packCursor].ID)
		}
	}
	return m, nil
}

// submit stages a send through the controller and issues the network call
// as a command. Local rejections (busy, empty, too long) become notices.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.controller.Send(m.input.Value())
	if err != nil {
		switch {
		case err == client.ErrEmptyMessage:
			// An empty submit is silently ignored.
		case err == client.ErrBusy:
			m.notice = "Hold on — still waiting for the previous answer."
		default:
			m.notice = err.Error()
		}
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	m.spinnerPos = 0
	return m, tea.Batch(m.respondCmd(req), m.spinCmd())
}

func (m *Model) respondCmd(req *client.Request) tea.Cmd {
	return func() tea.Msg {
		return responseMsg{out: m.controller.Do(req)}
	}
}

func (m *Model) spinCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return spinMsg{}
	})
}

func (m *Model) savePack() (tea.Model, tea.Cmd) {
	if m.packs == nil {
		m.notice = "Pack storage is unavailable."
		return m, nil
	}
	pack, err := m.controller.BuildPack(m.loadedPackID, "")
	if err != nil {
		m.notice = "Nothing to save yet — ask something first."
		return m, nil
	}
	m.loadedPackID = pack.ID
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return packSavedMsg{title: pack.Title, err: m.packs.SavePack(ctx, pack)}
	}
}

func (m *Model) loadPacksCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		packs, err := m.packs.ListPacks(ctx)
		return packsLoadedMsg{packs: packs, err: err}
	}
}

func (m *Model) deletePackCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return packDeletedMsg{err: m.packs.DeletePack(ctx, id)}
	}
}

// View renders the TUI.
func (m *Model) View() string {
	if m.state == viewPacks {
		return m.viewPacks()
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("StudyToolsGPT"))
	b.WriteString("  ")
	b.WriteString(taglineStyle.Render("mode: " + m.controller.Mode()))
	b.WriteString("\n\n")

	messages := m.controller.Messages()
	for _, msg := range messages {
		b.WriteString(renderMessage(msg, m.width))
		b.WriteString("\n\n")
	}

	if !hasUserMessage(messages) {
		b.WriteString(taglineStyle.Render("Try one of these:"))
		b.WriteString("\n")
		for _, q := range starterQuestions {
			b.WriteString(taglineStyle.Render("  › " + q))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.controller.Sending() {
		b.WriteString(pendingStyle.Render(spinnerFrames[m.spinnerPos] + " Thinking..."))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter send · esc cancel · ctrl+n new chat · ctrl+s save pack · ctrl+o packs · ctrl+c quit"))
	return b.String()
}

func (m *Model) viewPacks() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Saved packs"))
	b.WriteString("\n\n")

	if len(m.packList) == 0 {
		b.WriteString(taglineStyle.Render("No saved packs yet."))
		b.WriteString("\n")
	}
	for i, pack := range m.packList {
		line := fmt.Sprintf("%s — %s (%s)", pack.Title, pack.Mode, pack.UpdatedAt.Format("Jan 2 15:04"))
		if i == m.packCursor {
			line = selectedStyle.Render("❯ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter load · d delete · esc back"))
	return b.String()
}

func hasUserMessage(messages []domain.Message) bool {
	for _, m := range messages {
		if m.Role == domain.RoleUser {
			return true
		}
	}
	return false
}
