package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velorent/rentchat/internal/bus"
	"github.com/velorent/rentchat/internal/identity"
	"github.com/velorent/rentchat/internal/status"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newManager(t *testing.T, url string, b *bus.Bus, interval time.Duration, maxAttempts int) (*Manager, *status.Machine) {
	t.Helper()
	machine := status.NewMachine(b)
	id := &identity.Identity{UserID: "u1", Token: "tok"}
	m := NewManager(url, id, b, machine, nil, interval, maxAttempts)
	return m, machine
}

func TestReceivePushMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u1", r.URL.Query().Get("id"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		// A malformed frame first: it must be ignored, not fatal.
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{{{not json`))
		// An unrelated frame type: ignored as well.
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"presence","event":"ONLINE"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"type":"message","event":"NEW","data":{"id":"m9","chatId":"S1","senderId":"peer","messageContent":"hi","timestamp":5000,"is_read":false}}`))
		// Hold the connection open until the test ends.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	b := bus.New()
	ch, unsub := b.Subscribe("push.", 10)
	defer unsub()

	m, machine := newManager(t, wsURL(srv), b, 50*time.Millisecond, 0)
	m.Connect()
	defer m.Close()

	select {
	case evt := <-ch:
		require.Equal(t, "push.message", evt.Kind)
		pm, ok := evt.Payload.(PushMessage)
		require.True(t, ok, "payload type = %T", evt.Payload)
		assert.Equal(t, "S1", pm.ChatID)
		assert.Equal(t, "peer", pm.SenderID)
		assert.Equal(t, "hi", pm.Content)
		assert.Equal(t, int64(5000), int64(pm.Timestamp))
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for push.message")
	}
	assert.Equal(t, status.Open, machine.Current())
}

func TestUncleanCloseTriggersReconnectLoop(t *testing.T) {
	dials := make(chan struct{}, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials <- struct{}{}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		// Drop the TCP connection without a close handshake.
		_ = conn.UnderlyingConn().Close()
	}))
	defer srv.Close()

	b := bus.New()
	downCh, unsub := b.Subscribe("realtime.down", 16)
	defer unsub()

	m, _ := newManager(t, wsURL(srv), b, 20*time.Millisecond, 0)
	m.Connect()
	defer m.Close()

	// One reconnect per interval: expect several dials in sequence.
	for i := 0; i < 3; i++ {
		select {
		case <-dials:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for dial %d", i+1)
		}
	}

	select {
	case <-downCh:
	case <-time.After(2 * time.Second):
		t.Fatal("no realtime.down event after unclean close")
	}
}

func TestCleanCloseStopsLoop(t *testing.T) {
	dials := make(chan struct{}, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials <- struct{}{}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		time.Sleep(50 * time.Millisecond)
		_ = conn.Close()
	}))
	defer srv.Close()

	b := bus.New()
	m, machine := newManager(t, wsURL(srv), b, 20*time.Millisecond, 0)
	m.Connect()

	<-dials
	// Give any (incorrect) reconnect a chance to happen.
	select {
	case <-dials:
		t.Fatal("reconnected after a clean close")
	case <-time.After(200 * time.Millisecond):
	}
	m.Close()
	assert.Equal(t, status.Disconnected, machine.Current())
}

func TestConnectIsIdempotent(t *testing.T) {
	dials := make(chan struct{}, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials <- struct{}{}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	b := bus.New()
	m, _ := newManager(t, wsURL(srv), b, 50*time.Millisecond, 0)
	m.Connect()
	m.Connect()
	m.Connect()
	defer m.Close()

	<-dials
	select {
	case <-dials:
		t.Fatal("second Connect() opened a second connection")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestMaxAttemptsStopsLoop(t *testing.T) {
	b := bus.New()
	// Nothing listens on this port.
	m, machine := newManager(t, "ws://127.0.0.1:1/push", b, 10*time.Millisecond, 2)
	m.Connect()

	deadline := time.Now().Add(2 * time.Second)
	for machine.Current() == status.Disconnected && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	for time.Now().Before(deadline) {
		if machine.Current() == status.Disconnected {
			m.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("loop did not stop after exhausting max attempts")
}

func TestCloseDuringReconnectWait(t *testing.T) {
	b := bus.New()
	m, machine := newManager(t, "ws://127.0.0.1:1/push", b, time.Hour, 0)
	m.Connect()

	// Wait until the first dial failed and the loop parks on the interval.
	deadline := time.Now().Add(2 * time.Second)
	for machine.Current() != status.Reconnecting && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close() hung while the loop was waiting to reconnect")
	}
	assert.Equal(t, status.Disconnected, machine.Current())
}
