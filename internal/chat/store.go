package chat

import (
	"context"

	"go.uber.org/zap"
)

// Refresh replaces the full session list from the backend. Failures never
// propagate past this boundary: the previous list stays in place and the
// error is exposed through Err and a chat.error event.
func (c *Client) Refresh(ctx context.Context) {
	raw, err := c.api.ListSessions(ctx, c.identity.UserID)
	if err != nil {
		c.logger.Error("session refresh failed", zap.Error(err))
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.bus.Emit("chat.error", err.Error())
		return
	}

	fresh := make([]*Session, 0, len(raw))
	for _, s := range raw {
		fresh = append(fresh, formatSession(s))
	}

	c.mu.Lock()
	c.sessions = fresh
	c.lastErr = nil
	markID := c.reconcileActiveLocked()
	c.mu.Unlock()

	c.bus.Emit("chat.updated", nil)
	if markID != "" {
		c.markRead(markID)
	}
}

// reconcileActiveLocked re-resolves the active conversation against a fresh
// session list. Returns a session id to mark read when a new conversation
// became active. Caller holds c.mu.
func (c *Client) reconcileActiveLocked() string {
	// A recorded activation target wins over everything else.
	if c.pendingTarget != "" {
		if s := c.findLocked(c.pendingTarget); s != nil {
			c.logger.Info("pending conversation activated", zap.String("session_id", s.ID))
			c.pendingTarget = ""
			return c.setActiveLocked(s)
		}
		// The refresh completed and the target is definitively absent:
		// do not spin forever.
		c.logger.Warn("pending conversation missing from refreshed list",
			zap.String("session_id", c.pendingTarget))
		c.pendingTarget = ""
	}

	if c.active != nil {
		s := c.findLocked(c.active.ID)
		if s == nil {
			// The active session disappeared (deleted elsewhere).
			c.active = nil
			c.messages = nil
		} else {
			// Re-point at the fresh copy; only re-derive the displayed
			// list when it actually changed, to avoid flicker.
			c.active = s
			if !sameMessages(c.messages, s.Messages) {
				c.messages = append([]Message(nil), s.Messages...)
			}
			return ""
		}
	}

	// Default activation: first session in list order.
	if c.active == nil && len(c.sessions) > 0 {
		return c.setActiveLocked(c.sessions[0])
	}
	return ""
}

// setActiveLocked points the selector at s and resets the displayed list
// from its stored history. Returns s.ID for read marking.
func (c *Client) setActiveLocked(s *Session) string {
	c.active = s
	c.messages = append([]Message(nil), s.Messages...)
	return s.ID
}

func (c *Client) findLocked(sessionID string) *Session {
	for _, s := range c.sessions {
		if s.ID == sessionID {
			return s
		}
	}
	return nil
}

// OpenDirect looks up or creates the direct conversation with targetID,
// records it as the pending activation target and refreshes the store so
// the session enters the list through the normal path.
//
// A transport error during lookup aborts the whole flow — it must not fall
// through to creation, or a transient failure would mint duplicate
// sessions.
func (c *Client) OpenDirect(ctx context.Context, targetID, reservationID string) error {
	found, err := c.api.FindDirectSession(ctx, c.identity.UserID, targetID)
	if err != nil {
		return c.abortDirect(err)
	}
	if found == nil {
		found, err = c.api.CreateDirectSession(ctx, c.identity.UserID, targetID, reservationID)
		if err != nil {
			return c.abortDirect(err)
		}
		c.logger.Info("direct conversation created",
			zap.String("session_id", found.ID),
			zap.String("target", targetID))
	}

	c.mu.Lock()
	c.pendingTarget = found.ID
	c.mu.Unlock()

	c.Refresh(ctx)
	return nil
}

func (c *Client) abortDirect(err error) error {
	c.logger.Error("direct conversation open failed", zap.Error(err))
	c.mu.Lock()
	c.pendingTarget = ""
	c.lastErr = err
	c.mu.Unlock()
	c.bus.Emit("chat.error", err.Error())
	return err
}

// Delete removes a session server-side and locally. If it was the active
// conversation the selector clears; the follow-up refresh re-applies
// default activation.
func (c *Client) Delete(ctx context.Context, sessionID string) error {
	if err := c.api.DeleteSession(ctx, sessionID); err != nil {
		c.logger.Error("session delete failed", zap.Error(err), zap.String("session_id", sessionID))
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.bus.Emit("chat.error", err.Error())
		return err
	}

	c.mu.Lock()
	kept := c.sessions[:0]
	for _, s := range c.sessions {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	c.sessions = kept
	if c.active != nil && c.active.ID == sessionID {
		c.active = nil
		c.messages = nil
	}
	c.mu.Unlock()

	c.bus.Emit("chat.updated", nil)
	c.Refresh(ctx)
	return nil
}
