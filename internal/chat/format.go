package chat

import (
	"github.com/velorent/rentchat/internal/realtime"
	"github.com/velorent/rentchat/internal/rest"
)

// fromHistory normalizes a raw historical message. Fetched history is
// always stamped sent: the server would not return it otherwise.
func fromHistory(raw rest.Message) Message {
	return Message{
		ID:        raw.ID,
		SenderID:  raw.Sender.ID,
		Content:   raw.Body,
		Timestamp: int64(raw.CreatedAt),
		MediaURL:  raw.MediaURL,
		IsRead:    raw.IsRead,
		TTL:       raw.TTL,
		Status:    StatusSent,
	}
}

// fromConfirmation normalizes the send endpoint's response. Self-authored
// messages are read by definition.
func fromConfirmation(raw rest.Message) Message {
	m := fromHistory(raw)
	m.IsRead = true
	return m
}

// fromPush normalizes a realtime frame. Push-delivered messages are stamped
// delivered.
func fromPush(pm realtime.PushMessage) Message {
	return Message{
		ID:        pm.ID,
		SenderID:  pm.SenderID,
		Content:   pm.Content,
		Timestamp: int64(pm.Timestamp),
		MediaURL:  pm.MediaURL,
		IsRead:    pm.IsRead,
		TTL:       pm.TTL,
		Status:    StatusDelivered,
	}
}

// formatSession normalizes a raw session record including its history.
func formatSession(raw rest.Session) *Session {
	s := &Session{
		ID:            raw.ID,
		ReservationID: raw.ReservationID,
	}
	for _, p := range raw.Participants {
		s.Participants = append(s.Participants, Participant{
			ID:        p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			AvatarURL: p.Avatar,
		})
	}
	for _, m := range raw.Messages {
		s.Messages = append(s.Messages, fromHistory(m))
	}
	return s
}
