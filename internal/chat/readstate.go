package chat

import (
	"context"

	"go.uber.org/zap"
)

// markRead marks a session read server-side, fire-and-forget. Failures are
// logged, never surfaced, and never block anything. A successful mark
// schedules a store refresh so unread badges elsewhere stay consistent.
func (c *Client) markRead(sessionID string) {
	go func() {
		if err := c.api.MarkRead(context.Background(), sessionID, c.identity.UserID); err != nil {
			c.logger.Warn("mark read failed",
				zap.Error(err),
				zap.String("session_id", sessionID))
			return
		}
		c.Refresh(context.Background())
	}()
}
