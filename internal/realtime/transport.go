// Package realtime owns the persistent push connection to the backend.
// One Manager holds at most one live connection per logged-in user, parses
// inbound frames into typed events on the bus, and retries unclean
// closures on a fixed interval until closed intentionally.
package realtime

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/velorent/rentchat/internal/bus"
	"github.com/velorent/rentchat/internal/identity"
	"github.com/velorent/rentchat/internal/status"
	"go.uber.org/zap"
)

// Manager maintains the websocket connection lifecycle.
type Manager struct {
	wsURL       string
	identity    *identity.Identity
	bus         *bus.Bus
	machine     *status.Machine
	logger      *zap.Logger
	interval    time.Duration
	maxAttempts int
	dialer      *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a transport manager. interval is the delay between
// reconnect attempts; maxAttempts of zero retries forever.
func NewManager(wsURL string, id *identity.Identity, b *bus.Bus, machine *status.Machine, logger *zap.Logger, interval time.Duration, maxAttempts int) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Manager{
		wsURL:       wsURL,
		identity:    id,
		bus:         b,
		machine:     machine,
		logger:      logger,
		interval:    interval,
		maxAttempts: maxAttempts,
		dialer:      websocket.DefaultDialer,
	}
}

// Connect starts the connection loop. Calling it while a connection attempt
// is in flight or open is a no-op: only one live connection may exist.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx)
}

// Close performs a clean, intentional shutdown and waits for the loop to
// exit. The retry loop does not survive a clean close.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.cancel == nil {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.cancel = nil
	conn := m.conn
	done := m.done
	m.mu.Unlock()

	cancel()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	<-done
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	defer func() { _ = m.machine.Transition(status.Disconnected) }()

	attempts := 0
	for {
		_ = m.machine.Transition(status.Connecting)

		conn, resp, err := m.dialer.DialContext(ctx, m.endpoint(), nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			attempts++
			m.logger.Warn("realtime dial failed",
				zap.Error(err),
				zap.Int("attempt", attempts))
			m.bus.Emit("realtime.down", err.Error())
			if m.maxAttempts > 0 && attempts >= m.maxAttempts {
				m.logger.Error("realtime reconnect attempts exhausted",
					zap.Int("max_attempts", m.maxAttempts))
				return
			}
			_ = m.machine.Transition(status.Reconnecting)
			select {
			case <-time.After(m.interval):
				continue
			case <-ctx.Done():
				return
			}
		}

		attempts = 0
		m.mu.Lock()
		m.conn = conn
		m.mu.Unlock()

		_ = m.machine.Transition(status.Open)
		m.logger.Info("realtime connection open")
		m.bus.Emit("realtime.up", nil)

		readErr := m.readLoop(conn)

		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()
		_ = conn.Close()

		if ctx.Err() != nil || isCleanClose(readErr) {
			m.logger.Info("realtime connection closed")
			return
		}

		m.logger.Warn("realtime connection lost", zap.Error(readErr))
		m.bus.Emit("realtime.down", readErr.Error())
		_ = m.machine.Transition(status.Reconnecting)
		select {
		case <-time.After(m.interval):
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		m.dispatch(data)
	}
}

// dispatch parses one inbound frame. Malformed or unknown payloads are
// logged and dropped; they never tear down the connection.
func (m *Manager) dispatch(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		m.logger.Warn("malformed push frame", zap.Error(err))
		return
	}
	if env.Type != "message" || env.Event != "NEW" {
		m.logger.Debug("ignoring push frame",
			zap.String("type", env.Type),
			zap.String("event", env.Event))
		return
	}

	var pm PushMessage
	if err := json.Unmarshal(env.Data, &pm); err != nil {
		m.logger.Warn("malformed push message payload", zap.Error(err))
		return
	}
	if pm.ChatID == "" {
		m.logger.Warn("push message without chat id dropped")
		return
	}
	m.bus.Emit("push.message", pm)
}

func (m *Manager) endpoint() string {
	sep := "?"
	if u, err := url.Parse(m.wsURL); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return m.wsURL + sep + "id=" + url.QueryEscape(m.identity.UserID)
}

func isCleanClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
