package chat

import (
	"context"

	"github.com/velorent/rentchat/internal/realtime"
	"go.uber.org/zap"
)

// handlePush routes one inbound push message.
//
// Own messages are always discarded: the send pipeline is the sole path for
// the user's own messages, or they would appear twice. Messages for the
// active conversation merge into the displayed list and mark it read;
// messages for any other session only trigger a store refresh so unread
// indicators update.
func (c *Client) handlePush(pm realtime.PushMessage) {
	if pm.SenderID == c.identity.UserID {
		c.logger.Debug("own push discarded", zap.String("msg_id", pm.ID))
		return
	}

	c.mu.Lock()
	activeMatch := c.active != nil && c.active.ID == pm.ChatID
	if activeMatch {
		c.messages = Merge(c.messages, fromPush(pm))
	}
	c.mu.Unlock()

	if activeMatch {
		c.bus.Emit("chat.updated", nil)
		c.markRead(pm.ChatID)
		return
	}
	c.Refresh(context.Background())
}
