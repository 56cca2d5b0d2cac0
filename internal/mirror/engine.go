// Package mirror keeps the SQLite cache in step with the in-memory chat
// core. It subscribes to "chat.*" events on the bus and snapshots the
// session store after every change.
package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/velorent/rentchat/internal/bus"
	"github.com/velorent/rentchat/internal/chat"
	"github.com/velorent/rentchat/internal/store"
	"go.uber.org/zap"
)

// Source is the view of the chat core the mirror reads from.
type Source interface {
	Sessions() []*chat.Session
	UserID() string
}

// Engine handles idempotent ingestion of chat core state into the cache.
type Engine struct {
	db     *store.DB
	core   Source
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewEngine creates a new mirror engine.
func NewEngine(db *store.DB, core Source, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		core:   core,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to chat core events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("chat.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				if evt.Kind != "chat.updated" {
					continue
				}
				if err := e.Snapshot(); err != nil {
					e.logger.Error("cache snapshot failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Snapshot writes the core's current session list into the cache in one
// transaction. Sessions absent from the core are removed; optimistic
// entries with client-generated ids are never cached, they either confirm
// into server records or stay purely in memory.
func (e *Engine) Snapshot() error {
	sessions := e.core.Sessions()
	selfID := e.core.UserID()

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	msgsCount := 0

	for _, s := range sessions {
		var peerID, peerName string
		if p := s.Peer(selfID); p != nil {
			peerID = p.ID
			peerName = p.DisplayName()
		}
		var lastAt int64
		var preview string
		if lm := s.LastMessage(); lm != nil {
			lastAt = lm.Timestamp
			preview = truncate(lm.Content, 100)
		}

		if _, err := tx.Exec(`
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
			s.ID, peerID, peerName, s.ReservationID, s.UnreadCount(selfID), lastAt, preview, now); err != nil {
			return fmt.Errorf("upsert session in snapshot: %w", err)
		}

		for _, m := range s.Messages {
			if chat.IsPendingID(m.ID) {
				continue
			}
			if _, err := tx.Exec(`
				INSERT INTO messages (session_id, msg_id, sender_id, body, media_url, status, is_read, timestamp, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(session_id, msg_id) DO UPDATE SET
					body = excluded.body,
					status = excluded.status,
					is_read = excluded.is_read`,
				s.ID, m.ID, m.SenderID, m.Content, m.MediaURL, string(m.Status), m.IsRead, m.Timestamp, now); err != nil {
				return fmt.Errorf("upsert message in snapshot: %w", err)
			}
			msgsCount++
		}
	}

	// Sessions deleted remotely vanish from the core list; drop their
	// cached rows too.
	placeholders := ""
	ids := make([]any, 0, len(sessions))
	for i, s := range sessions {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		ids = append(ids, s.ID)
	}
	delSessions := `DELETE FROM sessions`
	delMessages := `DELETE FROM messages`
	if len(ids) > 0 {
		delSessions += ` WHERE id NOT IN (` + placeholders + `)`
		delMessages += ` WHERE session_id NOT IN (` + placeholders + `)`
	}
	if _, err := tx.Exec(delMessages, ids...); err != nil {
		return fmt.Errorf("prune messages in snapshot: %w", err)
	}
	if _, err := tx.Exec(delSessions, ids...); err != nil {
		return fmt.Errorf("prune sessions in snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	e.bus.Emit("mirror.snapshot", map[string]int{
		"sessions_count": len(sessions),
		"messages_count": msgsCount,
	})
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
