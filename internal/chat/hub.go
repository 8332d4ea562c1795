package chat

import (
	"context"
	"slices"
	"sync"

	"github.com/omochice/socket-chat-client/pkg/protocol"
	"github.com/rs/zerolog"
)

// Client represents a connected client with transport-agnostic connection.
type Client struct {
	ID       string
	Conn     Conn
	Nick     string
	Channel  string
	Outgoing chan []byte
}

// NewClient creates a Client with a buffered outgoing queue.
func NewClient(id string, conn Conn) *Client {
	return &Client{
		ID:       id,
		Conn:     conn,
		Outgoing: make(chan []byte, 64),
	}
}

func (c *Client) joined() bool {
	return c.Channel != ""
}

// Hub plays the bridge side of the protocol for local development: it
// answers logins with a join, keeps per-channel rosters and relays chat
// messages to the other members of a channel.
type Hub struct {
	defaultChannel string
	clients        map[*Client]bool
	mu             sync.RWMutex
	logger         zerolog.Logger
}

// NewHub creates a new Hub. Logins without a channel join defaultChannel.
func NewHub(defaultChannel string, logger zerolog.Logger) *Hub {
	return &Hub{
		defaultChannel: defaultChannel,
		clients:        make(map[*Client]bool),
		logger:         logger,
	}
}

// Register adds a client to the hub and greets it with a connected status.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	h.logger.Info().Str("client_id", client.ID).Str("remote", client.Conn.RemoteAddr()).Msg("client registered")
	h.send(client, protocol.StatusFrame(protocol.StatusConnected, ""))
}

// Unregister removes a client from the hub and announces its departure.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	h.mu.Unlock()

	h.logger.Info().Str("client_id", client.ID).Msg("client unregistered")
	if client.joined() {
		h.broadcast(client.Channel, protocol.RosterFrame(client.Nick, protocol.RosterRemove), client)
	}
}

// ClientCount returns number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Members returns the sorted nicknames joined to channel.
func (h *Hub) Members(channel string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var members []string
	for c := range h.clients {
		if c.Channel == channel {
			members = append(members, c.Nick)
		}
	}
	slices.Sort(members)
	return members
}

// HandleClient reads frames from the client until the connection fails or
// ctx is done, then unregisters it.
func (h *Hub) HandleClient(ctx context.Context, client *Client) {
	defer h.Unregister(client)

	for {
		data, err := client.Conn.Read(ctx)
		if err != nil {
			h.logger.Debug().Err(err).Str("client_id", client.ID).Msg("read failed")
			return
		}

		frame, err := protocol.DecodeFrame(data)
		if err != nil {
			h.logger.Warn().Err(err).Str("client_id", client.ID).Bytes("raw", data).Msg("received non-JSON frame")
			continue
		}

		switch {
		case frame.Action() == protocol.ActionLogin:
			h.login(client, frame)
		case frame.String(protocol.KeyMessage) != "":
			h.message(client, frame.String(protocol.KeyMessage))
		default:
			h.logger.Debug().Str("client_id", client.ID).Strs("keys", frame.Keys()).Msg("ignoring frame")
		}
	}
}

func (h *Hub) login(client *Client, frame *protocol.Frame) {
	nick := frame.String(protocol.KeyNick)
	if nick == "" {
		nick = frame.String("username")
	}
	if nick == "" {
		h.send(client, protocol.StatusFrame(protocol.StatusError, ""))
		return
	}
	channel := frame.String(protocol.KeyChannel)
	if channel == "" {
		channel = h.defaultChannel
	}

	h.mu.Lock()
	if client.joined() {
		h.mu.Unlock()
		h.logger.Debug().Str("client_id", client.ID).Msg("duplicate login ignored")
		return
	}
	client.Nick = nick
	client.Channel = channel
	h.mu.Unlock()

	h.logger.Info().Str("client_id", client.ID).Str("nick", nick).Str("channel", channel).Msg("client joined")

	h.send(client, protocol.StatusFrame(protocol.StatusJoined, channel))
	for _, member := range h.Members(channel) {
		h.send(client, protocol.RosterFrame(member, protocol.RosterAdd))
	}
	h.broadcast(channel, protocol.RosterFrame(nick, protocol.RosterAdd), client)
}

func (h *Hub) message(client *Client, text string) {
	if !client.joined() {
		h.logger.Debug().Str("client_id", client.ID).Msg("message before join dropped")
		return
	}
	h.broadcast(client.Channel, protocol.MessageFrame(client.Nick, client.Channel, text), client)
}

// broadcast sends a frame to every member of channel except the sender.
func (h *Hub) broadcast(channel string, frame *protocol.Frame, sender *Client) {
	data, err := frame.Encode()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c == sender || c.Channel != channel {
			continue
		}
		h.enqueue(c, data)
	}
}

func (h *Hub) send(client *Client, frame *protocol.Frame) {
	data, err := frame.Encode()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode frame")
		return
	}
	h.enqueue(client, data)
}

func (h *Hub) enqueue(client *Client, data []byte) {
	select {
	case client.Outgoing <- data:
	default:
		// Channel is full, skip this client
		h.logger.Warn().Str("client_id", client.ID).Msg("client queue full, dropping frame")
	}
}
