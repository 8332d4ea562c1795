// Package tui is the terminal front end: a login panel and a chat panel
// drawn from a ui.View.
package tui

import (
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/omochice/socket-chat-client/internal/form"
	"github.com/omochice/socket-chat-client/internal/ui"
)

// Submitter receives the user's form submissions.
type Submitter interface {
	SubmitLogin(f form.LoginForm)
	SubmitChat(text string)
}

// refreshMsg tells the model to re-read the view.
type refreshMsg struct{}

// Renderer applies commands to a ui.View and wakes the attached program.
type Renderer struct {
	view    *ui.View
	program atomic.Pointer[tea.Program]
}

// NewRenderer returns a Renderer drawing into view.
func NewRenderer(view *ui.View) *Renderer {
	return &Renderer{view: view}
}

// Attach sets the program notified after each render.
func (r *Renderer) Attach(p *tea.Program) {
	r.program.Store(p)
}

// Render implements ui.Renderer.
func (r *Renderer) Render(cmds ...ui.Command) {
	r.view.Render(cmds...)
	if p := r.program.Load(); p != nil {
		p.Send(refreshMsg{})
	}
}

// loginOrder is the tab order of the login panel.
var loginOrder = []string{form.FieldUsername, form.FieldChannel, form.FieldNick, form.FieldPassword}

// Model is the bubbletea model for the chat client.
type Model struct {
	view      *ui.View
	submitter Submitter
	snap      ui.Snapshot

	login      []textinput.Model
	focus      int
	chat       textinput.Model
	chatActive bool
	transcript viewport.Model

	width  int
	height int
}

// New returns a model showing the login panel prefilled from defaults.
func New(view *ui.View, submitter Submitter, defaults form.LoginForm) Model {
	m := Model{
		view:       view,
		submitter:  submitter,
		snap:       view.Snapshot(),
		transcript: viewport.New(80, 20),
	}

	m.login = make([]textinput.Model, len(loginOrder))
	for i, name := range loginOrder {
		ti := textinput.New()
		ti.Prompt = loginLabel(name) + ": "
		ti.CharLimit = 64
		ti.SetValue(defaults.Value(name))
		if name == form.FieldPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		m.login[i] = ti
	}
	m.login[0].Focus()

	m.chat = textinput.New()
	m.chat.Prompt = "> "
	m.chat.Placeholder = "Type a message (Enter to send, Ctrl+C to exit)"
	m.chat.CharLimit = 512
	return m
}

func loginLabel(name string) string {
	switch name {
	case form.FieldUsername:
		return "Username"
	case form.FieldChannel:
		return "Channel"
	case form.FieldNick:
		return "Nick"
	case form.FieldPassword:
		return "Password"
	}
	return name
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return refreshMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.chatActive {
			return m.updateChat(msg)
		}
		return m.updateLogin(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcript.Width = msg.Width
		// Banner, roster, input and status lines.
		m.transcript.Height = max(msg.Height-5, 3)
		m.chat.Width = max(msg.Width-4, 10)
		return m, nil

	case refreshMsg:
		return m.refresh()
	}

	var cmd tea.Cmd
	if m.chatActive {
		m.chat, cmd = m.chat.Update(msg)
	} else {
		m.login[m.focus], cmd = m.login[m.focus].Update(msg)
	}
	return m, cmd
}

func (m Model) refresh() (tea.Model, tea.Cmd) {
	m.snap = m.view.Snapshot()

	lines := make([]string, len(m.snap.Rows))
	for i, row := range m.snap.Rows {
		lines[i] = row.String()
	}
	m.transcript.SetContent(strings.Join(lines, "\n"))
	m.transcript.GotoBottom()

	if m.snap.ChatVisible && !m.chatActive {
		m.chatActive = true
		m.login[m.focus].Blur()
		return m, m.chat.Focus()
	}
	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.snap.LoginWaiting {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		return m.moveFocus(1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m.moveFocus(-1)
	case tea.KeyEnter:
		m.submitter.SubmitLogin(m.loginForm())
		return m, nil
	}

	var cmd tea.Cmd
	m.login[m.focus], cmd = m.login[m.focus].Update(msg)
	return m, cmd
}

func (m Model) moveFocus(delta int) (tea.Model, tea.Cmd) {
	m.login[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.login)) % len(m.login)
	return m, m.login[m.focus].Focus()
}

func (m Model) loginForm() form.LoginForm {
	var f form.LoginForm
	for i, name := range loginOrder {
		v := m.login[i].Value()
		if name != form.FieldPassword {
			v = strings.TrimSpace(v)
		}
		f.Set(name, v)
	}
	return f
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := m.chat.Value()
		if strings.TrimSpace(text) != "" {
			m.submitter.SubmitChat(text)
			m.chat.Reset()
		}
		return m, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	if m.chatActive {
		m.viewChat(&b)
	} else {
		m.viewLogin(&b)
	}
	if m.snap.ConnectionLost {
		b.WriteString("\n*** Connection lost ***")
	}
	return b.String()
}

func (m Model) viewLogin(b *strings.Builder) {
	b.WriteString("Log in\n\n")
	for _, in := range m.login {
		b.WriteString(in.View())
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if m.snap.LoginWaiting {
		b.WriteString("Logging in...")
	} else {
		b.WriteString("Tab to move, Enter to log in, Ctrl+C to exit")
	}
}

func (m Model) viewChat(b *strings.Builder) {
	for _, banner := range m.snap.Banners {
		b.WriteString("*** " + banner + " ***\n")
	}
	b.WriteString("Members: " + strings.Join(m.snap.Members, ", ") + "\n")
	b.WriteString(m.transcript.View())
	b.WriteByte('\n')
	b.WriteString(m.chat.View())
}
