package rest

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Participant is a chat participant as the backend returns it.
type Participant struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// Session is a raw conversation record including its message history as of
// the last fetch.
type Session struct {
	ID            string        `json:"id"`
	ReservationID string        `json:"reservation_id,omitempty"`
	Participants  []Participant `json:"participants"`
	Messages      []Message     `json:"messages"`
}

// Message is a raw historical message record.
type Message struct {
	ID        string `json:"id"`
	Sender    Sender `json:"sender"`
	Body      string `json:"message"`
	CreatedAt Millis `json:"created_at"`
	MediaURL  string `json:"media_url"`
	IsRead    bool   `json:"is_read"`
	TTL       int64  `json:"ttl"`
}

// Sender identifies a message author.
type Sender struct {
	ID string `json:"id"`
}

// Millis is an epoch-milliseconds timestamp. The backend usually sends a
// JSON number but has been observed sending RFC 3339 strings on some paths,
// so both are accepted.
type Millis int64

// UnmarshalJSON accepts an integer, a numeric string, or an RFC 3339 string.
func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if data[0] == '"' {
		s := string(data[1 : len(data)-1])
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			*m = Millis(ts.UnixMilli())
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
		*m = Millis(n)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse timestamp %s: %w", data, err)
	}
	*m = Millis(n)
	return nil
}

// MarshalJSON always emits the numeric form.
func (m Millis) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(m), 10)), nil
}
