package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate; a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + fts)", result.Version)
	}
}

func TestSessionUpsertAndList(t *testing.T) {
	db := testDB(t)

	s := &Session{ID: "s1", PeerID: "u2", PeerName: "Ana", LastMessageAt: 1000, LastMessagePreview: "hello"}
	if err := db.UpsertSession(s); err != nil {
		t.Fatal(err)
	}

	// Update in place.
	s.PeerName = "Ana Reis"
	s.UnreadCount = 3
	if err := db.UpsertSession(s); err != nil {
		t.Fatal(err)
	}

	sessions, err := db.ListSessions(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].PeerName != "Ana Reis" || sessions[0].UnreadCount != 3 {
		t.Errorf("session = %+v", sessions[0])
	}
}

func TestListSessionsOrderedByActivity(t *testing.T) {
	db := testDB(t)

	for _, s := range []*Session{
		{ID: "old", LastMessageAt: 100},
		{ID: "new", LastMessageAt: 300},
		{ID: "mid", LastMessageAt: 200},
	} {
		if err := db.UpsertSession(s); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := db.ListSessions(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 3 || sessions[0].ID != "new" || sessions[2].ID != "old" {
		t.Errorf("order = %v", sessions)
	}
}

func TestGetSession(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertSession(&Session{ID: "s1", PeerID: "u2"}); err != nil {
		t.Fatal(err)
	}
	s, err := db.GetSession("s1")
	if err != nil {
		t.Fatal(err)
	}
	// Empty peer_name falls back to the peer id.
	if s == nil || s.PeerName != "u2" {
		t.Errorf("got %v, want peer_name fallback to u2", s)
	}

	s, err = db.GetSession("missing")
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Errorf("expected nil for missing session")
	}
}

func TestMessageUpsertIdempotent(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertSession(&Session{ID: "s1"}); err != nil {
		t.Fatal(err)
	}

	m := &Message{SessionID: "s1", MsgID: "m1", Body: "hello", Status: "sent", Timestamp: 1000}
	if err := db.UpsertMessage(m); err != nil {
		t.Fatal(err)
	}
	m.Body = "hello updated"
	m.IsRead = true
	if err := db.UpsertMessage(m); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.ListMessages("s1", 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (idempotent upsert failed)", len(msgs))
	}
	if msgs[0].Body != "hello updated" || !msgs[0].IsRead {
		t.Errorf("message = %+v", msgs[0])
	}
}

func TestDeletePending(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertSession(&Session{ID: "s1"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMessage(&Message{SessionID: "s1", MsgID: "client:abc", Body: "optimistic", Timestamp: 1000}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMessage(&Message{SessionID: "s1", MsgID: "srv-1", Body: "confirmed", Timestamp: 1000}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeletePending("s1"); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.ListMessages("s1", 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].MsgID != "srv-1" {
		t.Errorf("messages = %v, want only the confirmed record", msgs)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertSession(&Session{ID: "s1"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMessage(&Message{SessionID: "s1", MsgID: "m1", Body: "bye", Timestamp: 1000}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteSession("s1"); err != nil {
		t.Fatal(err)
	}

	s, err := db.GetSession("s1")
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Error("session survived delete")
	}
	msgs, err := db.ListMessages("s1", 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages survived delete: %v", msgs)
	}
}

func TestSearchMessages(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertSession(&Session{ID: "s1"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMessage(&Message{SessionID: "s1", MsgID: "m1", Body: "pickup at the airport", Timestamp: 1000}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMessage(&Message{SessionID: "s1", MsgID: "m2", Body: "dropoff downtown", Timestamp: 2000}); err != nil {
		t.Fatal(err)
	}

	results, err := db.SearchMessages("airport", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Message.MsgID != "m1" {
		t.Errorf("msg_id = %q, want m1", results[0].Message.MsgID)
	}

	// Scoped to a different session: no hits.
	results, err = db.SearchMessages("airport", "other", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}
