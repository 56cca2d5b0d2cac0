package chat

import "go.uber.org/zap"

// ConvState describes the active-conversation selector.
type ConvState string

const (
	ConvNone    ConvState = "NONE"
	ConvPending ConvState = "PENDING"
	ConvActive  ConvState = "ACTIVE"
)

// State returns the selector's current state.
func (c *Client) State() ConvState {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.active != nil:
		return ConvActive
	case c.pendingTarget != "":
		return ConvPending
	default:
		return ConvNone
	}
}

// PendingTarget returns the recorded activation target, or "".
func (c *Client) PendingTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingTarget
}

// Activate makes sessionID the active conversation (a sidebar click). It
// cancels any pending activation target and resets the displayed list from
// the session's stored history. Clicking the already-active session is
// idempotent: no state change, no network call.
func (c *Client) Activate(sessionID string) {
	c.mu.Lock()
	if c.active != nil && c.active.ID == sessionID {
		c.mu.Unlock()
		return
	}
	s := c.findLocked(sessionID)
	if s == nil {
		c.mu.Unlock()
		c.logger.Warn("activation of unknown session ignored", zap.String("session_id", sessionID))
		return
	}
	c.pendingTarget = ""
	markID := c.setActiveLocked(s)
	c.mu.Unlock()

	c.bus.Emit("chat.updated", nil)
	c.markRead(markID)
}
