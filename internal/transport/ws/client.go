package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/omochice/socket-chat-client/internal/chat"
)

// DefaultDialTimeout bounds the TCP connect and websocket handshake.
const DefaultDialTimeout = 10 * time.Second

// Dialer opens client connections using gobwas/ws.
type Dialer struct {
	Timeout time.Duration
}

// NewDialer returns a Dialer with DefaultDialTimeout.
func NewDialer() *Dialer {
	return &Dialer{Timeout: DefaultDialTimeout}
}

// Dial implements session.Transport.
func (d *Dialer) Dial(ctx context.Context, url string) (chat.Conn, error) {
	dialer := ws.Dialer{Timeout: d.Timeout}
	conn, br, _, err := dialer.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	var r io.Reader = conn
	if br != nil {
		// The server may have sent frames right behind the handshake.
		r = br
	}
	return NewClientConn(conn, r), nil
}

// ClientConn is the client side of a websocket connection.
// Reads accept text and binary frames; writes are masked text frames.
type ClientConn struct {
	conn net.Conn
	rw   io.ReadWriter

	mu        sync.Mutex
	closeOnce sync.Once
}

// NewClientConn wraps a handshaken connection. r must yield the bytes
// received after the handshake, usually conn itself.
func NewClientConn(conn net.Conn, r io.Reader) *ClientConn {
	c := &ClientConn{conn: conn}
	c.rw = struct {
		io.Reader
		io.Writer
	}{r, lockedWriter{c}}
	return c
}

// lockedWriter serializes control frame replies with data writes.
type lockedWriter struct {
	c *ClientConn
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.conn.Write(p)
}

// Read implements chat.Conn. Ping and close frames are answered internally.
func (c *ClientConn) Read(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	data, _, err := wsutil.ReadServerData(c.rw)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var closed wsutil.ClosedError
		if errors.As(err, &closed) {
			return nil, fmt.Errorf("server closed connection (%d %s): %w", closed.Code, closed.Reason, io.EOF)
		}
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return data, nil
}

// Write implements chat.Conn.
func (c *ClientConn) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	if err := wsutil.WriteClientText(c.conn, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Close implements chat.Conn. It sends a normal close frame and closes the
// socket; later calls are no-ops.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = wsutil.WriteClientMessage(c.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// RemoteAddr implements chat.Conn.
func (c *ClientConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
