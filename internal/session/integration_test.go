package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/omochice/socket-chat-client/internal/chat"
	"github.com/omochice/socket-chat-client/internal/form"
	"github.com/omochice/socket-chat-client/internal/session"
	"github.com/omochice/socket-chat-client/internal/transport/ws"
	"github.com/omochice/socket-chat-client/internal/ui"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupServer starts a development hub and returns its host:port.
func setupServer(t *testing.T) string {
	t.Helper()
	hub := chat.NewHub("#lobby", zerolog.Nop())
	srv := ws.New("127.0.0.1:0", hub, zerolog.Nop())

	go srv.Start()
	t.Cleanup(srv.Stop)

	select {
	case <-srv.Ready():
	case <-time.After(time.Second):
		t.Fatal("server did not start")
	}
	return srv.Addr()
}

// runClient starts a session over gobwas/ws against host.
func runClient(t *testing.T, ctx context.Context, host string) (*session.Session, *ui.View, <-chan error) {
	t.Helper()
	view := ui.NewView()
	s := session.New(session.Config{URL: session.Endpoint(host)}, ws.NewDialer(), view, zerolog.Nop())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return s, view, done
}

func TestIntegration_LoginChatAndRoster(t *testing.T) {
	host := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice, aliceView, _ := runClient(t, ctx, host)
	alice.SubmitLogin(form.NewLoginForm("alice", "#go", "", ""))
	require.Eventually(t, func() bool { return aliceView.Snapshot().ChatVisible }, 2*time.Second, tick)
	assert.Equal(t, []string{"Welcome to #go"}, aliceView.Snapshot().Banners)
	require.Eventually(t, func() bool { return len(aliceView.Snapshot().Members) == 1 }, 2*time.Second, tick)
	assert.Equal(t, []string{"alice"}, aliceView.Snapshot().Members)

	bobCtx, bobCancel := context.WithCancel(ctx)
	bob, bobView, bobDone := runClient(t, bobCtx, host)
	bob.SubmitLogin(form.NewLoginForm("bob", "#go", "", ""))
	require.Eventually(t, func() bool { return len(bobView.Snapshot().Members) == 2 }, 2*time.Second, tick)
	require.Eventually(t, func() bool { return len(aliceView.Snapshot().Members) == 2 }, 2*time.Second, tick)

	bob.SubmitChat("hi")
	require.Eventually(t, func() bool { return len(aliceView.Snapshot().Rows) == 1 }, 2*time.Second, tick)
	assert.Equal(t, ui.Row{Kind: ui.RowMessage, Nick: "bob", Text: "hi"}, aliceView.Snapshot().Rows[0])
	require.Eventually(t, func() bool { return len(bobView.Snapshot().Rows) == 1 }, 2*time.Second, tick)
	assert.Equal(t, []ui.Row{{Kind: ui.RowMessage, Nick: "bob", Text: "hi"}}, bobView.Snapshot().Rows)

	bobCancel()
	select {
	case err := <-bobDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bob's session did not stop")
	}
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"alice"}, aliceView.Snapshot().Members)
	}, 2*time.Second, tick)
}

func TestIntegration_SendsQueuedBeforeOpen(t *testing.T) {
	host := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view := ui.NewView()
	s := session.New(session.Config{URL: session.Endpoint(host)}, ws.NewDialer(), view, zerolog.Nop())
	// Submitted before Run: both wait behind the readiness gate.
	s.SubmitLogin(form.NewLoginForm("carol", "", "", ""))
	s.SubmitChat("early")
	go s.Run(ctx)

	require.Eventually(t, func() bool { return view.Snapshot().ChatVisible }, 2*time.Second, tick)
	assert.Equal(t, []string{"Welcome to #lobby"}, view.Snapshot().Banners)
	assert.Equal(t, []ui.Row{{Kind: ui.RowMessage, Nick: "carol", Text: "early"}}, view.Snapshot().Rows)
}

func TestIntegration_ServerStopSurfacesConnectionLost(t *testing.T) {
	hub := chat.NewHub("#lobby", zerolog.Nop())
	srv := ws.New("127.0.0.1:0", hub, zerolog.Nop())
	go srv.Start()
	<-srv.Ready()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, view, _ := runClient(t, ctx, srv.Addr())
	waitOpen(t, s)

	srv.Stop()

	require.Eventually(t, func() bool { return view.Snapshot().ConnectionLost }, 2*time.Second, tick)
	require.Eventually(t, func() bool { return s.Status().State == session.StatePending }, 2*time.Second, tick)
}
