package bus

import "time"

// Event kinds used across the client, grouped by namespace:
//
//	chat.*     — session store changes (chat.updated, chat.send_ack,
//	             chat.send_failed, chat.error)
//	push.*     — inbound realtime frames (push.message)
//	realtime.* — transport lifecycle (realtime.up, realtime.down,
//	             realtime.status_changed)
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
