// Package form models the login form and turns submissions into frames.
package form

import "github.com/omochice/socket-chat-client/pkg/protocol"

// Default login field names, in the order the bridge's login accepts them.
const (
	FieldUsername = "username"
	FieldChannel  = "channel"
	FieldNick     = "nick"
	FieldPassword = "password"
)

// Field is a named input of the login form.
type Field struct {
	Name  string
	Value string
}

// LoginForm is an ordered set of named inputs.
type LoginForm struct {
	Fields []Field
}

// NewLoginForm returns a form with the default fields.
func NewLoginForm(username, channel, nick, password string) LoginForm {
	return LoginForm{Fields: []Field{
		{Name: FieldUsername, Value: username},
		{Name: FieldChannel, Value: channel},
		{Name: FieldNick, Value: nick},
		{Name: FieldPassword, Value: password},
	}}
}

// Set assigns value to the named field, appending the field when missing.
func (f *LoginForm) Set(name, value string) {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			f.Fields[i].Value = value
			return
		}
	}
	f.Fields = append(f.Fields, Field{Name: name, Value: value})
}

// Value returns the value of the named field.
func (f LoginForm) Value(name string) string {
	for _, fd := range f.Fields {
		if fd.Name == name {
			return fd.Value
		}
	}
	return ""
}

// Nick returns the nickname the user will appear under: nick, else username.
func (f LoginForm) Nick() string {
	if nick := f.Value(FieldNick); nick != "" {
		return nick
	}
	return f.Value(FieldUsername)
}

// Frame builds the login frame. Unnamed fields are skipped and empty values
// are sent as null. Values are sent as stored; the terminal UI trims every
// field but the password before submitting, so a blank field goes out as null.
func (f LoginForm) Frame() *protocol.Frame {
	frame := protocol.NewFrame()
	frame.SetString(protocol.KeyAction, protocol.ActionLogin)
	for _, fd := range f.Fields {
		if fd.Name == "" || fd.Name == protocol.KeyAction {
			continue
		}
		if fd.Value == "" {
			frame.Set(fd.Name, nil)
			continue
		}
		frame.SetString(fd.Name, fd.Value)
	}
	return frame
}
