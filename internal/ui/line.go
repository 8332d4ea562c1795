package ui

import (
	"fmt"
	"io"
	"sync"
)

// LineRenderer writes commands as plain text lines.
type LineRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineRenderer returns a LineRenderer writing to w.
func NewLineRenderer(w io.Writer) *LineRenderer {
	return &LineRenderer{w: w}
}

// Render implements Renderer.
func (r *LineRenderer) Render(cmds ...Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cmd := range cmds {
		if line, ok := formatLine(cmd); ok {
			fmt.Fprintln(r.w, line)
		}
	}
}

func formatLine(cmd Command) (string, bool) {
	switch cmd.Kind {
	case CommandShowChat:
		return fmt.Sprintf("*** Welcome to %s ***", cmd.Channel), true
	case CommandAppendMessage:
		return Row{Kind: RowMessage, Nick: cmd.Nick, Text: cmd.Text}.String(), true
	case CommandAppendNotice:
		return Row{Kind: RowNotice, Nick: cmd.Nick, Text: cmd.Text}.String(), true
	case CommandAddMember:
		return fmt.Sprintf("*** %s joined the chat ***", cmd.Nick), true
	case CommandRemoveMember:
		return fmt.Sprintf("*** %s left the chat ***", cmd.Nick), true
	case CommandLoginWaiting:
		return "*** Logging in... ***", true
	case CommandConnectionLost:
		return "*** Connection lost ***", true
	default:
		return "", false
	}
}
