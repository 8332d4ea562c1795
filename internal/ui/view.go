package ui

import (
	"fmt"
	"slices"
	"sync"
)

// RowKind distinguishes transcript rows.
type RowKind int

const (
	RowMessage RowKind = iota
	RowNotice
)

// Row is one line of the transcript.
type Row struct {
	Kind RowKind
	Nick string
	Text string
}

func (r Row) String() string {
	if r.Kind == RowNotice {
		return fmt.Sprintf("-%s- %s", r.Nick, r.Text)
	}
	return fmt.Sprintf("[%s]: %s", r.Nick, r.Text)
}

// Snapshot is a copy of the view state.
type Snapshot struct {
	Rows           []Row
	Members        []string
	Banners        []string
	LoginVisible   bool
	LoginWaiting   bool
	ChatVisible    bool
	ConnectionLost bool
}

// View is an in-memory renderer holding the login panel, chat panel,
// transcript and roster. It is safe for concurrent use.
type View struct {
	mu             sync.RWMutex
	rows           []Row
	members        []string
	banners        []string
	loginVisible   bool
	loginWaiting   bool
	chatVisible    bool
	connectionLost bool
}

// NewView returns a view showing the login panel.
func NewView() *View {
	return &View{loginVisible: true}
}

// Render implements Renderer.
func (v *View) Render(cmds ...Command) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, cmd := range cmds {
		v.apply(cmd)
	}
}

func (v *View) apply(cmd Command) {
	switch cmd.Kind {
	case CommandShowChat:
		v.banners = append([]string{"Welcome to " + cmd.Channel}, v.banners...)
		v.loginVisible = false
		v.chatVisible = true
	case CommandAppendMessage:
		v.rows = append(v.rows, Row{Kind: RowMessage, Nick: cmd.Nick, Text: cmd.Text})
	case CommandAppendNotice:
		v.rows = append(v.rows, Row{Kind: RowNotice, Nick: cmd.Nick, Text: cmd.Text})
	case CommandAddMember:
		if !slices.Contains(v.members, cmd.Nick) {
			v.members = append(v.members, cmd.Nick)
		}
	case CommandRemoveMember:
		if i := slices.Index(v.members, cmd.Nick); i >= 0 {
			v.members = slices.Delete(v.members, i, i+1)
		}
	case CommandLoginWaiting:
		v.loginWaiting = true
	case CommandConnectionLost:
		v.connectionLost = true
	}
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return Snapshot{
		Rows:           slices.Clone(v.rows),
		Members:        slices.Clone(v.members),
		Banners:        slices.Clone(v.banners),
		LoginVisible:   v.loginVisible,
		LoginWaiting:   v.loginWaiting,
		ChatVisible:    v.chatVisible,
		ConnectionLost: v.connectionLost,
	}
}
