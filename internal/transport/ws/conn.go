// Package ws provides the WebSocket transports: a gobwas/ws client used by
// the chat session and a coder/websocket server used by the development hub.
package ws

import (
	"context"

	"github.com/coder/websocket"
)

// maxFrameSize caps inbound frames on the server side.
const maxFrameSize = 64 << 10

// Conn adapts coder/websocket to the chat.Conn interface.
type Conn struct {
	conn       *websocket.Conn
	remoteAddr string
}

// NewConn wraps a websocket.Conn with empty remote address.
func NewConn(conn *websocket.Conn) *Conn {
	return NewConnWithAddr(conn, "")
}

// NewConnWithAddr wraps a websocket.Conn with the specified remote address.
func NewConnWithAddr(conn *websocket.Conn, addr string) *Conn {
	conn.SetReadLimit(maxFrameSize)
	return &Conn{conn: conn, remoteAddr: addr}
}

// Read implements chat.Conn.
// Reads a text or binary message from the WebSocket connection.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

// Write implements chat.Conn.
// Writes a text message to the WebSocket connection.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}
