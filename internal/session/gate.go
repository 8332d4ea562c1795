package session

// GateState is the readiness of the outbound path.
type GateState int

const (
	StatePending GateState = iota
	StateReady
)

// String returns the string representation of GateState
func (s GateState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Gate holds outbound frames until the transport is open.
//
// The queue is unbounded: frames submitted while pending are kept until the
// next Open, however many there are. Gate is not safe for concurrent use; the
// session loop owns it.
type Gate struct {
	state GateState
	queue [][]byte
}

// Submit offers a frame. It reports true when the gate is ready and the
// caller must write the frame now; otherwise the frame is queued.
func (g *Gate) Submit(frame []byte) bool {
	if g.state == StateReady {
		return true
	}
	g.queue = append(g.queue, frame)
	return false
}

// Open moves the gate to ready and returns the queued frames in submission
// order. Each queued frame is returned exactly once.
func (g *Gate) Open() [][]byte {
	g.state = StateReady
	flushed := g.queue
	g.queue = nil
	return flushed
}

// Close moves the gate back to pending. Later submissions queue again.
func (g *Gate) Close() {
	g.state = StatePending
}

// State returns the current readiness.
func (g *Gate) State() GateState {
	return g.state
}

// Len returns the number of queued frames.
func (g *Gate) Len() int {
	return len(g.queue)
}
