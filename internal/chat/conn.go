// Package chat provides the connection abstraction shared by the client
// session and the development hub.
package chat

import "context"

// Conn abstracts a bidirectional frame connection.
// This interface isolates transport details from chat logic.
type Conn interface {
	// Read reads a single frame (one JSON object).
	// Returns an error once the connection is closed.
	Read(ctx context.Context) ([]byte, error)

	// Write sends a single frame.
	Write(ctx context.Context, data []byte) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
