package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/omochice/socket-chat-client/internal/form"
	"github.com/omochice/socket-chat-client/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	logins []form.LoginForm
	chats  []string
}

func (r *recorder) SubmitLogin(f form.LoginForm) { r.logins = append(r.logins, f) }
func (r *recorder) SubmitChat(text string)       { r.chats = append(r.chats, text) }

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func typeText(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(k tea.KeyType) tea.Msg {
	return tea.KeyMsg{Type: k}
}

func TestModel_LoginSubmit(t *testing.T) {
	view := ui.NewView()
	rec := &recorder{}
	m := New(view, rec, form.NewLoginForm("", "#go", "", ""))

	m = update(t, m,
		typeText("alice"),
		key(tea.KeyTab), key(tea.KeyTab),
		typeText("al"),
		key(tea.KeyTab),
		typeText("secret"),
		key(tea.KeyEnter),
	)

	require.Len(t, rec.logins, 1)
	got := rec.logins[0]
	assert.Equal(t, "alice", got.Value(form.FieldUsername))
	assert.Equal(t, "#go", got.Value(form.FieldChannel))
	assert.Equal(t, "al", got.Value(form.FieldNick))
	assert.Equal(t, "secret", got.Value(form.FieldPassword))
	assert.NotContains(t, m.View(), "secret", "password is masked")
}

func TestModel_FocusWraps(t *testing.T) {
	m := New(ui.NewView(), &recorder{}, form.LoginForm{})

	m = update(t, m, key(tea.KeyShiftTab))
	assert.Equal(t, 3, m.focus)
	m = update(t, m, key(tea.KeyTab))
	assert.Equal(t, 0, m.focus)
}

func TestModel_LoginWaitingDisablesForm(t *testing.T) {
	view := ui.NewView()
	rec := &recorder{}
	m := New(view, rec, form.NewLoginForm("alice", "", "", ""))

	view.Render(ui.LoginWaiting())
	m = update(t, m, refreshMsg{}, typeText("x"), key(tea.KeyEnter))

	assert.Empty(t, rec.logins)
	assert.Equal(t, "alice", m.login[0].Value())
	assert.Contains(t, m.View(), "Logging in...")
}

func TestModel_SwitchesToChat(t *testing.T) {
	view := ui.NewView()
	rec := &recorder{}
	m := New(view, rec, form.LoginForm{})

	view.Render(ui.ShowChat("#go"), ui.AddMember("alice"), ui.AppendMessage("bob", "hi"))
	m = update(t, m, refreshMsg{})

	assert.True(t, m.chatActive)
	out := m.View()
	assert.Contains(t, out, "*** Welcome to #go ***")
	assert.Contains(t, out, "Members: alice")
	assert.Contains(t, out, "[bob]: hi")
}

func TestModel_ChatSubmit(t *testing.T) {
	view := ui.NewView()
	rec := &recorder{}
	m := New(view, rec, form.LoginForm{})
	view.Render(ui.ShowChat("#go"))
	m = update(t, m, refreshMsg{})

	m = update(t, m, key(tea.KeyEnter), typeText("  "), key(tea.KeyEnter))
	assert.Empty(t, rec.chats, "blank input is not sent")

	m = update(t, m, typeText("hello"), key(tea.KeyEnter))
	assert.Equal(t, []string{"  hello"}, rec.chats)
	assert.Empty(t, m.chat.Value())
}

func TestModel_ConnectionLost(t *testing.T) {
	view := ui.NewView()
	m := New(view, &recorder{}, form.LoginForm{})

	view.Render(ui.ConnectionLost())
	m = update(t, m, refreshMsg{})

	assert.True(t, strings.HasSuffix(m.View(), "*** Connection lost ***"))
}

func TestModel_CtrlCQuits(t *testing.T) {
	m := New(ui.NewView(), &recorder{}, form.LoginForm{})

	_, cmd := m.Update(key(tea.KeyCtrlC))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_WindowSize(t *testing.T) {
	m := New(ui.NewView(), &recorder{}, form.LoginForm{})

	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, 100, m.transcript.Width)
	assert.Equal(t, 25, m.transcript.Height)
}

func TestRenderer_WithoutProgram(t *testing.T) {
	view := ui.NewView()
	r := NewRenderer(view)

	r.Render(ui.AddMember("alice"))

	assert.Equal(t, []string{"alice"}, view.Snapshot().Members)
}
