package ui

import (
	"slices"

	"github.com/omochice/socket-chat-client/pkg/protocol"
)

// ProjectionState is the only state the projection needs between events.
type ProjectionState struct {
	Joined  bool
	Channel string
	// Members is the roster in arrival order. Project never modifies it in
	// place, so earlier states stay valid.
	Members []string
}

// Project maps an inbound event to the view commands it implies.
//
// Status events other than the first join, unknown and malformed events
// produce no commands. Neither does adding a member already listed or
// removing one that is not.
func Project(state ProjectionState, ev protocol.Event) (ProjectionState, []Command) {
	switch ev.Kind {
	case protocol.EventStatus:
		if !ev.Joined() || state.Joined {
			return state, nil
		}
		state.Joined = true
		state.Channel = ev.Channel
		return state, []Command{ShowChat(ev.Channel)}
	case protocol.EventChat:
		return state, []Command{AppendMessage(ev.Nick, ev.Text)}
	case protocol.EventNotice:
		return state, []Command{AppendNotice(ev.Nick, ev.Text)}
	case protocol.EventRoster:
		i := slices.Index(state.Members, ev.Member)
		if ev.Action == protocol.RosterRemove {
			if i < 0 {
				return state, nil
			}
			state.Members = slices.Delete(slices.Clone(state.Members), i, i+1)
			return state, []Command{RemoveMember(ev.Member)}
		}
		if i >= 0 {
			return state, nil
		}
		state.Members = append(slices.Clip(state.Members), ev.Member)
		return state, []Command{AddMember(ev.Member)}
	default:
		return state, nil
	}
}
