// Package protocol defines the JSON frames exchanged with the chat bridge.
//
// Every transport frame carries exactly one JSON object. Outbound frames are
// flat objects whose values are strings or null; inbound frames are classified
// into events by the keys they carry.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Frame keys used on the wire.
const (
	KeyAction  = "action"
	KeyMessage = "message"
	KeyNick    = "nick"
	KeyStatus  = "status"
	KeyChannel = "channel"
	KeyMember  = "member"
	KeyNotice  = "notice"
	KeyTarget  = "target"
)

// ActionLogin is the action discriminator of login frames.
const ActionLogin = "login"

// ErrUnsupportedValue is returned when a frame value is neither a string nor null.
var ErrUnsupportedValue = errors.New("frame value must be a string or null")

type field struct {
	key   string
	value *string
}

// Frame is a flat JSON object mapping keys to strings or null.
// Keys and Set keep insertion order in memory only; the encoded object's key
// order is unspecified.
type Frame struct {
	fields []field
}

// NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{}
}

// Set assigns value to key. A nil value is encoded as JSON null.
func (f *Frame) Set(key string, value *string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].value = value
			return
		}
	}
	f.fields = append(f.fields, field{key: key, value: value})
}

// SetString assigns a non-null string value to key.
func (f *Frame) SetString(key, value string) {
	f.Set(key, &value)
}

// Get returns the value stored under key. ok is false when the key is absent.
func (f *Frame) Get(key string) (value *string, ok bool) {
	for _, fd := range f.fields {
		if fd.key == key {
			return fd.value, true
		}
	}
	return nil, false
}

// String returns the string stored under key, or "" when absent or null.
func (f *Frame) String(key string) string {
	v, _ := f.Get(key)
	if v == nil {
		return ""
	}
	return *v
}

// Keys returns the frame keys in insertion order.
func (f *Frame) Keys() []string {
	keys := make([]string, len(f.fields))
	for i, fd := range f.fields {
		keys[i] = fd.key
	}
	return keys
}

// Len returns the number of keys in the frame.
func (f *Frame) Len() int {
	return len(f.fields)
}

// Action returns the action discriminator, or "" when the frame has none.
func (f *Frame) Action() string {
	return f.String(KeyAction)
}

// Encode encodes the frame as a JSON object.
func (f *Frame) Encode() ([]byte, error) {
	data, err := protojson.Marshal(f.toProto())
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return data, nil
}

// DecodeFrame decodes a JSON object into a frame. Keys are ordered
// lexically because JSON objects carry no order.
func DecodeFrame(data []byte) (*Frame, error) {
	s, err := unmarshalObject(data)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(s)
	f := &Frame{fields: make([]field, 0, len(keys))}
	for _, k := range keys {
		switch v := s.GetFields()[k].GetKind().(type) {
		case *structpb.Value_StringValue:
			f.SetString(k, v.StringValue)
		case *structpb.Value_NullValue:
			f.Set(k, nil)
		default:
			return nil, fmt.Errorf("failed to decode frame key %q: %w", k, ErrUnsupportedValue)
		}
	}
	return f, nil
}

// toProto converts the frame into a protobuf Struct.
func (f *Frame) toProto() *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(f.fields))}
	for _, fd := range f.fields {
		if fd.value == nil {
			s.Fields[fd.key] = structpb.NewNullValue()
			continue
		}
		s.Fields[fd.key] = structpb.NewStringValue(*fd.value)
	}
	return s
}

// unmarshalObject decodes a JSON object. protojson rejects duplicate keys;
// such objects are decoded again with the last value of each key winning.
func unmarshalObject(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	err := protojson.Unmarshal(data, s)
	if err == nil {
		return s, nil
	}

	var m map[string]any
	if jsonErr := json.Unmarshal(data, &m); jsonErr != nil || m == nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	s, structErr := structpb.NewStruct(m)
	if structErr != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", structErr)
	}
	return s, nil
}

func sortedKeys(s *structpb.Struct) []string {
	keys := make([]string, 0, len(s.GetFields()))
	for k := range s.GetFields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ChatFrame builds an outbound chat frame.
func ChatFrame(text string) *Frame {
	f := NewFrame()
	f.SetString(KeyMessage, text)
	return f
}

// StatusFrame builds a status notification. channel is omitted when empty.
func StatusFrame(status, channel string) *Frame {
	f := NewFrame()
	f.SetString(KeyStatus, status)
	if channel != "" {
		f.SetString(KeyChannel, channel)
	}
	return f
}

// MessageFrame builds a chat broadcast from nick to target.
func MessageFrame(nick, target, text string) *Frame {
	f := NewFrame()
	f.SetString(KeyNick, nick)
	f.SetString(KeyTarget, target)
	f.SetString(KeyMessage, text)
	return f
}

// NoticeFrame builds a notice broadcast from nick to target.
func NoticeFrame(nick, target, text string) *Frame {
	f := NewFrame()
	f.SetString(KeyNick, nick)
	f.SetString(KeyTarget, target)
	f.SetString(KeyNotice, text)
	return f
}

// RosterFrame builds a roster delta for member.
func RosterFrame(member string, action RosterAction) *Frame {
	f := NewFrame()
	f.SetString(KeyMember, member)
	f.SetString(KeyAction, string(action))
	return f
}
