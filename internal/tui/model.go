// Package tui renders the negotiation chat as a Bubble Tea program.
//
// The model is a thin view over chat.Controller: key handling translates to
// controller intents, the intent closures run as tea.Cmds, and their results
// come back as messages that feed the matching Apply method. Guard logic
// lives in the controller alone; a guarded-out intent simply produces no
// command here.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buildmart/haggle/internal/chat"
	"github.com/buildmart/haggle/internal/domain"
	"github.com/buildmart/haggle/internal/logging"
	"github.com/buildmart/haggle/internal/store"
)

// Model is the chat screen. Construct with New and run it inside a
// tea.Program; after the program exits, LoggedOut tells the caller whether
// the user discarded the session from inside the UI.
type Model struct {
	ctrl     *chat.Controller
	sessions store.SessionStore
	log      *logging.Logger

	width  int
	height int

	input      textinput.Model
	transcript viewport.Model
	spin       spinner.Model

	theme    theme
	lastSent string

	loggedOut bool
	quitting  bool
}

type initResultMsg struct {
	res chat.InitResult
}

type sendResultMsg struct {
	res chat.SendResult
}

// New builds the chat UI around a controller. The accent color applies to the
// builder's own turns; an empty accent falls back to the default.
func New(ctrl *chat.Controller, sessions store.SessionStore, accent string, log *logging.Logger) Model {
	th := newTheme(accent)

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Ask for a quote..."
	input.CharLimit = 2000
	input.Width = 74
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = th.spinner

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	m := Model{
		ctrl:       ctrl,
		sessions:   sessions,
		log:        log.Sub("tui"),
		width:      80,
		height:     24,
		input:      input,
		transcript: vp,
		spin:       sp,
		theme:      th,
	}
	m.renderTranscript()
	return m
}

// LoggedOut reports whether the user logged out from inside the UI.
func (m Model) LoggedOut() bool {
	return m.loggedOut
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick}
	if fn := m.ctrl.Init(); fn != nil {
		cmds = append(cmds, runInit(fn))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderTranscript()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd

	case initResultMsg:
		m.ctrl.ApplyInit(msg.res)
		m.syncInput()
		m.renderTranscript()
		m.transcript.GotoBottom()
		return m, nil

	case sendResultMsg:
		m.ctrl.ApplySend(msg.res)
		if m.ctrl.ErrMessage() != "" && strings.TrimSpace(m.input.Value()) == "" {
			// Give the rolled-back text back to the builder for editing.
			m.input.SetValue(m.lastSent)
			m.input.CursorEnd()
		}
		m.syncInput()
		m.renderTranscript()
		m.transcript.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "ctrl+d":
			if err := m.sessions.Clear(); err != nil {
				m.log.Warn().Err(err).Msg("session clear failed on logout")
			}
			m.ctrl.Reset()
			m.loggedOut = true
			m.quitting = true
			return m, tea.Quit

		case "ctrl+r":
			fn := m.ctrl.Restart()
			if fn == nil {
				return m, nil
			}
			m.input.Reset()
			m.syncInput()
			m.renderTranscript()
			return m, runInit(fn)

		case "enter":
			text := m.input.Value()
			fn := m.ctrl.Send(text)
			if fn == nil {
				return m, nil
			}
			m.lastSent = strings.TrimSpace(text)
			m.input.Reset()
			m.renderTranscript()
			m.transcript.GotoBottom()
			return m, runSend(fn)

		case "pgup":
			m.transcript.LineUp(5)
			return m, nil

		case "pgdown":
			m.transcript.LineDown(5)
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.transcript.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.theme.help.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.title.Render("Haggle")
	name := m.theme.dim.Render("  negotiating as " + m.ctrl.Session().BuilderName)
	return title + name
}

func (m Model) statusLine() string {
	switch {
	case m.ctrl.Busy():
		return m.spin.View() + " waiting for BuildMart..."
	case m.ctrl.ErrMessage() != "":
		return m.theme.errLine.Render(m.ctrl.ErrMessage())
	case m.ctrl.Ended():
		return m.theme.banner.Render("negotiation closed · press ctrl+r to start a new one")
	default:
		return m.theme.dim.Render("ready")
	}
}

func (m Model) helpLine() string {
	if m.ctrl.Ended() {
		return "  Ctrl+R: new negotiation  Ctrl+D: logout  Esc: quit"
	}
	return "  Enter: send  Ctrl+R: restart  Ctrl+D: logout  Esc: quit"
}

// transcriptContent renders the controller transcript for the viewport:
// builder turns right-aligned in the accent color, assistant turns plain.
func (m Model) transcriptContent() string {
	turns := m.ctrl.Transcript()
	if len(turns) == 0 {
		return m.theme.dim.Render("No messages yet. Ask for a quote to get going.")
	}

	width := m.transcript.Width
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case domain.RoleUser:
			lines = append(lines, m.theme.builder.Width(width).Render(turn.Content))
		default:
			lines = append(lines, m.theme.assistant.Width(width).Render(turn.Content))
		}
	}
	return strings.Join(lines, "\n\n")
}

func (m *Model) renderTranscript() {
	atBottom := m.transcript.AtBottom()
	m.transcript.SetContent(m.transcriptContent())
	if atBottom {
		m.transcript.GotoBottom()
	}
}

// syncInput keeps the textinput focus in step with the conversation state:
// a closed negotiation takes typing away until a restart brings it back.
func (m *Model) syncInput() {
	if m.ctrl.Ended() {
		m.input.Blur()
		return
	}
	if !m.input.Focused() {
		m.input.Focus()
	}
}

func (m *Model) resize() {
	chrome := 4 // header, status, input, help
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	m.transcript.Width = m.width
	m.transcript.Height = h

	w := m.width - len(m.input.Prompt) - 2
	if w < 20 {
		w = 20
	}
	m.input.Width = w
}

func runInit(fn func(ctx context.Context) chat.InitResult) tea.Cmd {
	return func() tea.Msg {
		return initResultMsg{res: fn(context.Background())}
	}
}

func runSend(fn func(ctx context.Context) chat.SendResult) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{res: fn(context.Background())}
	}
}
