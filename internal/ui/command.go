// Package ui projects inbound events into view commands and renders them.
package ui

// CommandKind represents the kind of a view command.
type CommandKind int

const (
	CommandShowChat CommandKind = iota
	CommandAppendMessage
	CommandAppendNotice
	CommandAddMember
	CommandRemoveMember
	CommandLoginWaiting
	CommandConnectionLost
)

// String returns the string representation of CommandKind
func (k CommandKind) String() string {
	switch k {
	case CommandShowChat:
		return "SHOW_CHAT"
	case CommandAppendMessage:
		return "APPEND_MESSAGE"
	case CommandAppendNotice:
		return "APPEND_NOTICE"
	case CommandAddMember:
		return "ADD_MEMBER"
	case CommandRemoveMember:
		return "REMOVE_MEMBER"
	case CommandLoginWaiting:
		return "LOGIN_WAITING"
	case CommandConnectionLost:
		return "CONNECTION_LOST"
	default:
		return "UNKNOWN"
	}
}

// Command is a single view update.
type Command struct {
	Kind    CommandKind
	Channel string
	Nick    string
	Text    string
}

// Renderer applies view commands.
type Renderer interface {
	Render(cmds ...Command)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(cmds ...Command)

// Render implements Renderer.
func (f RendererFunc) Render(cmds ...Command) {
	f(cmds...)
}

// Tee returns a Renderer that forwards every command to each renderer in order.
func Tee(renderers ...Renderer) Renderer {
	return RendererFunc(func(cmds ...Command) {
		for _, r := range renderers {
			r.Render(cmds...)
		}
	})
}

// ShowChat hides the login panel and reveals the chat panel for channel.
func ShowChat(channel string) Command {
	return Command{Kind: CommandShowChat, Channel: channel}
}

// AppendMessage appends a chat row.
func AppendMessage(nick, text string) Command {
	return Command{Kind: CommandAppendMessage, Nick: nick, Text: text}
}

// AppendNotice appends a notice row.
func AppendNotice(nick, text string) Command {
	return Command{Kind: CommandAppendNotice, Nick: nick, Text: text}
}

// AddMember adds nick to the roster.
func AddMember(nick string) Command {
	return Command{Kind: CommandAddMember, Nick: nick}
}

// RemoveMember removes nick from the roster.
func RemoveMember(nick string) Command {
	return Command{Kind: CommandRemoveMember, Nick: nick}
}

// LoginWaiting marks the login form as submitted and disables its inputs.
func LoginWaiting() Command {
	return Command{Kind: CommandLoginWaiting}
}

// ConnectionLost marks the transport as closed.
func ConnectionLost() Command {
	return Command{Kind: CommandConnectionLost}
}
