// Package session implements the client side of the chat bridge protocol.
//
// A Session owns one transport connection. It gates outbound frames until the
// connection is open, decodes inbound frames and projects them onto a
// ui.Renderer, and turns login and chat submissions into frames. All session
// state is owned by the goroutine running Run; the exported methods only post
// events to it and never block.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/omochice/socket-chat-client/internal/chat"
	"github.com/omochice/socket-chat-client/internal/form"
	"github.com/omochice/socket-chat-client/internal/ui"
	"github.com/omochice/socket-chat-client/pkg/protocol"
	"github.com/rs/zerolog"
)

// DefaultWriteTimeout bounds a single frame write.
const DefaultWriteTimeout = 10 * time.Second

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("session already started")

// Transport dials the chat endpoint.
type Transport interface {
	Dial(ctx context.Context, url string) (chat.Conn, error)
}

// Config holds session settings.
type Config struct {
	// URL is the websocket endpoint, usually Endpoint(host).
	URL string
	// WriteTimeout bounds each frame write. Zero means DefaultWriteTimeout.
	WriteTimeout time.Duration
}

// Endpoint returns the bridge endpoint served at host: no path, no
// sub-protocol.
func Endpoint(host string) string {
	return "ws://" + host + "/"
}

// Status is a point-in-time copy of the session state.
type Status struct {
	State          GateState
	Queued         int
	Nick           string
	Authenticating bool
	Joined         bool
	Channel        string
	ConnectionLost bool
}

type eventKind int

const (
	evOpen eventKind = iota
	evDialFailed
	evClosed
	evMessage
	evSend
	evLogin
	evChat
)

type event struct {
	kind  eventKind
	conn  chat.Conn
	data  []byte
	err   error
	frame *protocol.Frame
	form  form.LoginForm
	text  string
}

// Session is one chat session over one transport connection.
type Session struct {
	id        string
	cfg       Config
	transport Transport
	renderer  ui.Renderer
	logger    zerolog.Logger
	started   atomic.Bool

	mu    sync.Mutex
	inbox []event
	wake  chan struct{}

	statusMu sync.RWMutex
	status   Status

	// Owned by the Run goroutine.
	gate           Gate
	conn           chat.Conn
	projection     ui.ProjectionState
	nick           string
	authenticating bool
	connectionLost bool
}

// New creates a pending session. Nothing is dialed until Run.
func New(cfg Config, transport Transport, renderer ui.Renderer, logger zerolog.Logger) *Session {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		cfg:       cfg,
		transport: transport,
		renderer:  renderer,
		logger:    logger.With().Str("session_id", id).Logger(),
		wake:      make(chan struct{}, 1),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Status returns the state as of the last processed event.
func (s *Session) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Send submits a frame. It never fails: before the transport is open, or
// after it closed, the frame is queued. The frame must not be modified after
// the call.
func (s *Session) Send(frame *protocol.Frame) {
	s.post(event{kind: evSend, frame: frame})
}

// SubmitLogin submits the login form. Only the first submission produces a
// frame.
func (s *Session) SubmitLogin(f form.LoginForm) {
	f.Fields = slices.Clone(f.Fields)
	s.post(event{kind: evLogin, form: f})
}

// SubmitChat submits the chat box. Empty text is ignored.
func (s *Session) SubmitChat(text string) {
	s.post(event{kind: evChat, text: text})
}

// Run dials the endpoint and processes events until ctx is done.
// It returns an error when the dial fails; a connection lost later is
// rendered, and the session keeps queueing sends without reconnecting.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	readerDone := make(chan struct{})
	defer func() {
		cancel()
		<-readerDone
	}()

	s.logger.Info().Str("url", s.cfg.URL).Msg("connecting")
	go func() {
		defer close(readerDone)
		s.connect(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("session stopped")
			return nil
		case <-s.wake:
			for _, ev := range s.drain() {
				if err := s.handle(ctx, ev); err != nil {
					return err
				}
			}
			s.publishStatus()
		}
	}
}

// connect dials once and pumps inbound frames into the loop.
func (s *Session) connect(ctx context.Context) {
	conn, err := s.transport.Dial(ctx, s.cfg.URL)
	if err != nil {
		s.post(event{kind: evDialFailed, err: err})
		return
	}
	defer conn.Close()

	s.post(event{kind: evOpen, conn: conn})
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			s.post(event{kind: evClosed, err: err})
			return
		}
		s.post(event{kind: evMessage, data: data})
	}
}

func (s *Session) post(ev event) {
	s.mu.Lock()
	s.inbox = append(s.inbox, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) drain() []event {
	s.mu.Lock()
	defer s.mu.Unlock()
	evs := s.inbox
	s.inbox = nil
	return evs
}

func (s *Session) handle(ctx context.Context, ev event) error {
	switch ev.kind {
	case evDialFailed:
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to connect to server: %w", ev.err)
	case evOpen:
		s.open(ctx, ev.conn)
	case evClosed:
		s.closed(ctx, ev.err)
	case evMessage:
		s.onMessage(ev.data)
	case evSend:
		s.send(ctx, ev.frame)
	case evLogin:
		s.login(ctx, ev.form)
	case evChat:
		s.chat(ctx, ev.text)
	}
	return nil
}

func (s *Session) open(ctx context.Context, conn chat.Conn) {
	s.conn = conn
	flushed := s.gate.Open()
	s.logger.Info().Str("remote", conn.RemoteAddr()).Int("flushed", len(flushed)).Msg("connected")
	for _, data := range flushed {
		s.write(ctx, data)
	}
}

func (s *Session) closed(ctx context.Context, err error) {
	s.conn = nil
	s.gate.Close()
	if ctx.Err() != nil {
		return
	}
	// No reconnect: sends from here on stay queued.
	s.connectionLost = true
	s.logger.Warn().Err(err).Msg("connection lost")
	s.renderer.Render(ui.ConnectionLost())
}

func (s *Session) onMessage(data []byte) {
	ev := protocol.Decode(data)
	switch ev.Kind {
	case protocol.EventMalformed:
		s.logger.Warn().Err(ev.Err).Bytes("raw", ev.Raw).Msg("received non-JSON message")
		return
	case protocol.EventUnknown:
		s.logger.Debug().Strs("keys", ev.Keys).Msg("ignoring unrecognized message")
		return
	case protocol.EventStatus:
		s.logger.Info().Str("status", ev.Status).Str("channel", ev.Channel).Msg("connection status")
	}

	state, cmds := ui.Project(s.projection, ev)
	if ev.Joined() && len(cmds) == 0 {
		s.logger.Debug().Str("channel", ev.Channel).Msg("already joined, ignoring")
	}
	s.projection = state
	if len(cmds) > 0 {
		s.renderer.Render(cmds...)
	}
}

func (s *Session) send(ctx context.Context, frame *protocol.Frame) {
	data, err := frame.Encode()
	if err != nil {
		s.logger.Error().Err(err).Msg("dropping frame")
		return
	}
	if !s.gate.Submit(data) {
		s.logger.Debug().Int("queued", s.gate.Len()).Msg("transport not ready, frame queued")
		return
	}
	s.write(ctx, data)
}

func (s *Session) write(ctx context.Context, data []byte) {
	wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	if err := s.conn.Write(wctx, data); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send frame")
	}
}

func (s *Session) login(ctx context.Context, f form.LoginForm) {
	if s.authenticating {
		s.logger.Debug().Msg("login already in progress")
		return
	}
	s.nick = f.Nick()
	s.send(ctx, f.Frame())
	s.renderer.Render(ui.LoginWaiting())
	s.authenticating = true
}

func (s *Session) chat(ctx context.Context, text string) {
	if text == "" {
		return
	}
	s.send(ctx, protocol.ChatFrame(text))
	// The bridge does not echo our own messages back.
	s.renderer.Render(ui.AppendMessage(s.nick, text))
}

func (s *Session) publishStatus() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status = Status{
		State:          s.gate.State(),
		Queued:         s.gate.Len(),
		Nick:           s.nick,
		Authenticating: s.authenticating,
		Joined:         s.projection.Joined,
		Channel:        s.projection.Channel,
		ConnectionLost: s.connectionLost,
	}
}
