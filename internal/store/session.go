package store

import (
	"database/sql"
	"time"
)

// UpsertSession inserts or updates a session record.
func (db *DB) UpsertSession(s *Session) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO sessions (id, peer_id, peer_name, reservation_id, unread_count, last_message_at, last_message_preview, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			peer_id = excluded.peer_id,
			peer_name = excluded.peer_name,
			reservation_id = excluded.reservation_id,
			unread_count = excluded.unread_count,
			last_message_at = excluded.last_message_at,
			last_message_preview = excluded.last_message_preview,
			updated_at = excluded.updated_at`,
		s.ID, s.PeerID, s.PeerName, s.ReservationID, s.UnreadCount, s.LastMessageAt, s.LastMessagePreview, now)
	return err
}

// ListSessions returns sessions sorted by last message timestamp descending.
func (db *DB) ListSessions(limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, peer_id, COALESCE(NULLIF(peer_name,''), peer_id) AS display_name,
			reservation_id, unread_count, last_message_at, last_message_preview
		FROM sessions
		ORDER BY last_message_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.PeerID, &s.PeerName, &s.ReservationID, &s.UnreadCount, &s.LastMessageAt, &s.LastMessagePreview); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSession returns a single session by id.
func (db *DB) GetSession(id string) (*Session, error) {
	var s Session
	err := db.QueryRow(`
		SELECT id, peer_id, COALESCE(NULLIF(peer_name,''), peer_id) AS display_name,
			reservation_id, unread_count, last_message_at, last_message_preview
		FROM sessions
		WHERE id = ?`, id).
		Scan(&s.ID, &s.PeerID, &s.PeerName, &s.ReservationID, &s.UnreadCount, &s.LastMessageAt, &s.LastMessagePreview)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession removes a session and its cached messages.
func (db *DB) DeleteSession(id string) error {
	if _, err := db.Exec(`DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return err
	}
	_, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}
