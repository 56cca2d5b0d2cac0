package chat

import (
	"strings"

	"github.com/google/uuid"
)

// Status is the client-side delivery state of a message. It is never
// persisted server-side.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Message is a normalized chat message as displayed to the user.
type Message struct {
	ID        string
	SenderID  string
	Content   string
	Timestamp int64 // epoch millis; client clock while pending, server clock once confirmed
	MediaURL  string
	IsRead    bool
	TTL       int64
	Status    Status
}

// Participant is a member of a session.
type Participant struct {
	ID        string
	FirstName string
	LastName  string
	AvatarURL string
}

// DisplayName renders a participant for the sidebar.
func (p Participant) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.ID
	}
	return name
}

// Session is a conversation with its message history as of the last fetch.
type Session struct {
	ID            string
	ReservationID string
	Participants  []Participant
	Messages      []Message
}

// Peer returns the first participant other than selfID, or nil.
func (s *Session) Peer(selfID string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ID != selfID {
			return &s.Participants[i]
		}
	}
	return nil
}

// LastMessage returns the newest message in the fetched history, or nil.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// UnreadCount counts peer messages not yet read by selfID.
func (s *Session) UnreadCount(selfID string) int {
	n := 0
	for i := range s.Messages {
		if s.Messages[i].SenderID != selfID && !s.Messages[i].IsRead {
			n++
		}
	}
	return n
}

// pendingIDPrefix marks locally-generated ids awaiting server confirmation.
const pendingIDPrefix = "client:"

func newPendingID() string {
	return pendingIDPrefix + uuid.New().String()
}

// IsPendingID reports whether id was generated locally.
func IsPendingID(id string) bool {
	return strings.HasPrefix(id, pendingIDPrefix)
}
