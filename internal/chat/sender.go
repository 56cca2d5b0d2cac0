package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SendFailure is the payload of chat.send_failed events.
type SendFailure struct {
	PendingID string
	SessionID string
	Reason    string
}

// Send accepts user-authored text for the active conversation. The message
// appears immediately with a client-generated pending id and status
// "sending"; the durable write runs asynchronously and later promotes the
// entry to sent or marks it failed in place. Sends never block each other.
func (c *Client) Send(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		c.logger.Warn("send with no active conversation dropped")
		return
	}
	if c.identity.UserID == "" {
		c.mu.Unlock()
		c.logger.Warn("send without a known user id dropped")
		return
	}
	sessionID := c.active.ID
	pendingID := newPendingID()
	c.messages = Merge(c.messages, Message{
		ID:        pendingID,
		SenderID:  c.identity.UserID,
		Content:   trimmed,
		Timestamp: time.Now().UnixMilli(),
		IsRead:    true,
		Status:    StatusSending,
	})
	c.mu.Unlock()

	c.bus.Emit("chat.updated", nil)
	go c.deliver(sessionID, pendingID, trimmed)
}

// deliver performs the durable write for one optimistic message.
func (c *Client) deliver(sessionID, pendingID, content string) {
	confirmed, err := c.api.SendMessage(context.Background(), sessionID, c.identity.UserID, content, "")
	if err != nil {
		c.logger.Error("send failed",
			zap.Error(err),
			zap.String("session_id", sessionID),
			zap.String("pending_id", pendingID))
		c.mu.Lock()
		if c.active != nil && c.active.ID == sessionID {
			c.messages = Fail(c.messages, pendingID)
		}
		c.mu.Unlock()
		c.bus.Emit("chat.send_failed", SendFailure{
			PendingID: pendingID,
			SessionID: sessionID,
			Reason:    err.Error(),
		})
		c.bus.Emit("chat.updated", nil)
		return
	}

	msg := fromConfirmation(*confirmed)
	c.mu.Lock()
	if c.active != nil && c.active.ID == sessionID {
		c.messages = Confirm(c.messages, pendingID, msg)
	}
	c.mu.Unlock()

	c.logger.Info("message sent",
		zap.String("pending_id", pendingID),
		zap.String("server_id", msg.ID))
	c.bus.Emit("chat.send_ack", map[string]string{
		"pending_id": pendingID,
		"server_id":  msg.ID,
	})
	c.bus.Emit("chat.updated", nil)

	// Sidebar previews and unread counters come from the store, not from
	// the displayed list.
	c.Refresh(context.Background())
}
