package store

// Session represents a cached conversation.
type Session struct {
	ID                 string
	PeerID             string
	PeerName           string
	ReservationID      string
	UnreadCount        int
	LastMessageAt      int64
	LastMessagePreview string
}

// Message represents a cached message.
type Message struct {
	ID        int64
	SessionID string
	MsgID     string
	SenderID  string
	Body      string
	MediaURL  string
	Status    string
	IsRead    bool
	Timestamp int64
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
