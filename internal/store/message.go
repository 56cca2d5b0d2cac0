package store

import "time"

// UpsertMessage inserts or updates a message (idempotent on session_id + msg_id).
func (db *DB) UpsertMessage(m *Message) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO messages (session_id, msg_id, sender_id, body, media_url, status, is_read, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, msg_id) DO UPDATE SET
			body = excluded.body,
			status = excluded.status,
			is_read = excluded.is_read`,
		m.SessionID, m.MsgID, m.SenderID, m.Body, m.MediaURL, m.Status, m.IsRead, m.Timestamp, now)
	return err
}

// ListMessages returns messages for a session using keyset pagination by
// timestamp.
func (db *DB) ListMessages(sessionID string, beforeTs int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeTs <= 0 {
		beforeTs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT id, session_id, msg_id, sender_id, body, media_url, status, is_read, timestamp
		FROM messages
		WHERE session_id = ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT ?`, sessionID, beforeTs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.MsgID, &m.SenderID, &m.Body, &m.MediaURL, &m.Status, &m.IsRead, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// DeletePending removes cached optimistic entries that were superseded by
// server records. Pending ids never come back from the backend, so any
// stored client-generated id whose session also holds a newer server record
// is stale.
func (db *DB) DeletePending(sessionID string) error {
	_, err := db.Exec(`DELETE FROM messages WHERE session_id = ? AND msg_id LIKE 'client:%'`, sessionID)
	return err
}
