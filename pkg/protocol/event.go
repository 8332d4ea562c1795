package protocol

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// EventKind represents the kind of an inbound event.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventMalformed
	EventStatus
	EventChat
	EventNotice
	EventRoster
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventMalformed:
		return "MALFORMED"
	case EventStatus:
		return "STATUS"
	case EventChat:
		return "CHAT"
	case EventNotice:
		return "NOTICE"
	case EventRoster:
		return "ROSTER"
	default:
		return "UNKNOWN"
	}
}

// RosterAction is the action of a roster delta.
type RosterAction string

const (
	RosterAdd    RosterAction = "add"
	RosterRemove RosterAction = "remove"
)

// Well-known status values sent by the bridge.
const (
	StatusConnected    = "connected"
	StatusJoined       = "joined"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
)

// Event is a decoded inbound frame.
// Only the fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	// Status events.
	Status  string
	Channel string

	// Chat and notice events.
	Nick   string
	Text   string
	Target string

	// Roster events.
	Member string
	Action RosterAction

	// Keys lists the object keys of unknown events.
	Keys []string

	// Raw and Err describe malformed payloads.
	Raw []byte
	Err error
}

// Joined reports whether the event announces a successful channel join.
func (e Event) Joined() bool {
	return e.Kind == EventStatus && e.Status == StatusJoined
}

// Decode classifies a raw payload into an Event.
//
// Payloads that are not a JSON object decode to EventMalformed. Objects are
// classified by the presence of a non-empty string under status, message,
// member and notice, in that order; anything else is EventUnknown.
func Decode(data []byte) Event {
	s, err := unmarshalObject(data)
	if err != nil {
		raw := make([]byte, len(data))
		copy(raw, data)
		return Event{Kind: EventMalformed, Raw: raw, Err: err}
	}

	str := func(key string) string {
		return s.GetFields()[key].GetStringValue()
	}

	switch {
	case str(KeyStatus) != "":
		return Event{Kind: EventStatus, Status: str(KeyStatus), Channel: str(KeyChannel)}
	case str(KeyMessage) != "":
		return Event{Kind: EventChat, Nick: str(KeyNick), Text: str(KeyMessage), Target: str(KeyTarget)}
	case str(KeyMember) != "":
		action := RosterAction(str(KeyAction))
		if action != RosterAdd && action != RosterRemove {
			return unknown(s)
		}
		return Event{Kind: EventRoster, Member: str(KeyMember), Action: action}
	case str(KeyNotice) != "":
		return Event{Kind: EventNotice, Nick: str(KeyNick), Text: str(KeyNotice), Target: str(KeyTarget)}
	default:
		return unknown(s)
	}
}

func unknown(s *structpb.Struct) Event {
	return Event{Kind: EventUnknown, Keys: sortedKeys(s)}
}
