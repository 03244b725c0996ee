package history

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)
	got := parseTime(formatTime(now))
	if !got.Equal(now) {
		t.Errorf("round trip: got %v, want %v", got, now)
	}
}

func TestFormatTimeOrdering(t *testing.T) {
	early := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	late := early.Add(10 * time.Millisecond)
	if formatTime(early) >= formatTime(late) {
		t.Error("string comparison must match chronological order")
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	db := openTestDB(t)
	for _, table := range []string{"chat_messages", "twitter_history"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}
