package ws_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/omochice/socket-chat-client/internal/transport/ws"
)

func newEchoServer(t *testing.T, greeting string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")

		if greeting != "" {
			if err := c.Write(r.Context(), websocket.MessageText, []byte(greeting)); err != nil {
				return
			}
		}
		for {
			typ, data, err := c.Read(r.Context())
			if err != nil {
				return
			}
			if err := c.Write(r.Context(), typ, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/"
}

func TestDialer_Dial(t *testing.T) {
	server := newEchoServer(t, `{"status":"connected"}`)

	conn, err := ws.NewDialer().Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != `{"status":"connected"}` {
		t.Errorf("Read() = %q, want greeting", data)
	}
	if conn.RemoteAddr() == "" {
		t.Error("RemoteAddr() returned empty string")
	}
}

func TestDialer_DialRefused(t *testing.T) {
	server := newEchoServer(t, "")
	url := wsURL(server)
	server.Close()

	_, err := ws.NewDialer().Dial(context.Background(), url)
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
}

func TestClientConn_WriteRead(t *testing.T) {
	server := newEchoServer(t, "")

	conn, err := ws.NewDialer().Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, msg := range []string{`{"message":"one"}`, `{"message":"two"}`} {
		if err := conn.Write(ctx, []byte(msg)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	for _, want := range []string{`{"message":"one"}`, `{"message":"two"}`} {
		got, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("Read() = %q, want %q", got, want)
		}
	}
}

func TestClientConn_ReadHonorsContext(t *testing.T) {
	server := newEchoServer(t, "")

	conn, err := ws.NewDialer().Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = conn.Read(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}

func TestClientConn_ServerClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		c.Close(websocket.StatusGoingAway, "bye")
	}))
	defer server.Close()

	conn, err := ws.NewDialer().Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = conn.Read(ctx)
	if !errors.Is(err, io.EOF) {
		t.Errorf("Read() error = %v, want wrapped io.EOF", err)
	}
}

func TestClientConn_CloseTwice(t *testing.T) {
	server := newEchoServer(t, "")

	conn, err := ws.NewDialer().Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
