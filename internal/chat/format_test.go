package chat

import (
	"testing"

	"github.com/velorent/rentchat/internal/realtime"
	"github.com/velorent/rentchat/internal/rest"
)

func TestFromHistoryStampsSent(t *testing.T) {
	m := fromHistory(rest.Message{
		ID:        "m1",
		Sender:    rest.Sender{ID: "u2"},
		Body:      "hello",
		CreatedAt: 1700000000000,
		MediaURL:  "https://cdn/x.png",
		TTL:       60,
	})
	if m.Status != StatusSent {
		t.Errorf("status = %s, want sent", m.Status)
	}
	if m.SenderID != "u2" || m.Content != "hello" || m.Timestamp != 1700000000000 {
		t.Errorf("unexpected mapping: %+v", m)
	}
	if m.MediaURL != "https://cdn/x.png" || m.TTL != 60 {
		t.Errorf("media/ttl dropped: %+v", m)
	}
}

func TestFromConfirmationForcesRead(t *testing.T) {
	m := fromConfirmation(rest.Message{ID: "m1", IsRead: false})
	if !m.IsRead {
		t.Error("confirmation must be read")
	}
}

func TestFromPushStampsDelivered(t *testing.T) {
	m := fromPush(realtime.PushMessage{
		ID:        "m7",
		ChatID:    "s1",
		SenderID:  "u2",
		Content:   "ping",
		Timestamp: 1700000000500,
	})
	if m.Status != StatusDelivered {
		t.Errorf("status = %s, want delivered", m.Status)
	}
	if m.ID != "m7" || m.Timestamp != 1700000000500 {
		t.Errorf("unexpected mapping: %+v", m)
	}
}

func TestFormatSession(t *testing.T) {
	s := formatSession(rest.Session{
		ID:            "s1",
		ReservationID: "r9",
		Participants: []rest.Participant{
			{ID: "u1", FirstName: "Ana", LastName: "Reis"},
			{ID: "u2"},
		},
		Messages: []rest.Message{
			{ID: "m1", Sender: rest.Sender{ID: "u2"}, Body: "oi", CreatedAt: 100},
		},
	})
	if s.ID != "s1" || s.ReservationID != "r9" {
		t.Errorf("session header: %+v", s)
	}
	if len(s.Participants) != 2 || s.Participants[0].DisplayName() != "Ana Reis" {
		t.Errorf("participants: %+v", s.Participants)
	}
	if s.Participants[1].DisplayName() != "u2" {
		t.Errorf("empty-name fallback: %q", s.Participants[1].DisplayName())
	}
	if len(s.Messages) != 1 || s.Messages[0].Status != StatusSent {
		t.Errorf("history: %+v", s.Messages)
	}
}

func TestPeerAndUnread(t *testing.T) {
	s := &Session{
		Participants: []Participant{{ID: "me"}, {ID: "other"}},
		Messages: []Message{
			{ID: "1", SenderID: "other", IsRead: false},
			{ID: "2", SenderID: "other", IsRead: true},
			{ID: "3", SenderID: "me", IsRead: false},
		},
	}
	if p := s.Peer("me"); p == nil || p.ID != "other" {
		t.Errorf("peer = %v", p)
	}
	if n := s.UnreadCount("me"); n != 1 {
		t.Errorf("unread = %d, want 1", n)
	}
	if lm := s.LastMessage(); lm == nil || lm.ID != "3" {
		t.Errorf("last = %v", lm)
	}
}
