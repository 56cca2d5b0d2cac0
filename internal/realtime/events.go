package realtime

import (
	"encoding/json"

	"github.com/velorent/rentchat/internal/rest"
)

// Envelope is the wire frame pushed by the backend.
type Envelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// PushMessage is the payload of a {type:"message", event:"NEW"} frame.
// Field names differ from the historical message shape; the chat core
// normalizes both.
type PushMessage struct {
	ID        string      `json:"id"`
	ChatID    string      `json:"chatId"`
	SenderID  string      `json:"senderId"`
	Content   string      `json:"messageContent"`
	Timestamp rest.Millis `json:"timestamp"`
	MediaURL  string      `json:"media_url"`
	IsRead    bool        `json:"is_read"`
	TTL       int64       `json:"ttl"`
}
