package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

const openCodeSchema = `
CREATE TABLE IF NOT EXISTS session (
	id TEXT PRIMARY KEY,
	directory TEXT,
	title TEXT
);
CREATE TABLE IF NOT EXISTS message (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	data TEXT
);
CREATE TABLE IF NOT EXISTS part (
	id TEXT PRIMARY KEY,
	message_id TEXT NOT NULL,
	data TEXT
);`

// CreateOpenCodeDB creates an opencode.db with the session, message and part
// tables. The database is closed when the test ends.
func CreateOpenCodeDB(t *testing.T, dbPath string) *sql.DB {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(openCodeSchema); err != nil {
		t.Fatalf("Failed to create opencode tables: %v", err)
	}
	return db
}

// CreateSQLiteFixture creates a database file with a single unrelated table
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
}

// InsertOpenCodeSession inserts a session row
func InsertOpenCodeSession(t *testing.T, db *sql.DB, id, title string) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO session (id, directory, title) VALUES (?, ?, ?)", id, "/work", title); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}
}

// InsertOpenCodeMessage inserts a message row whose data is v marshalled
func InsertOpenCodeMessage(t *testing.T, db *sql.DB, id, sessionID string, v interface{}) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO message (id, session_id, data) VALUES (?, ?, ?)", id, sessionID, string(JSONMarshal(t, v))); err != nil {
		t.Fatalf("Failed to insert message: %v", err)
	}
}

// InsertOpenCodePart inserts a part row whose data is v marshalled
func InsertOpenCodePart(t *testing.T, db *sql.DB, id, messageID string, v interface{}) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO part (id, message_id, data) VALUES (?, ?, ?)", id, messageID, string(JSONMarshal(t, v))); err != nil {
		t.Fatalf("Failed to insert part: %v", err)
	}
}

// InsertRaw inserts a row with a literal data payload, for malformed rows
func InsertRaw(t *testing.T, db *sql.DB, table, id, owner, data string) {
	t.Helper()
	ownerCol := "session_id"
	if table == "part" {
		ownerCol = "message_id"
	}
	if _, err := db.Exec("INSERT INTO "+table+" (id, "+ownerCol+", data) VALUES (?, ?, ?)", id, owner, data); err != nil {
		t.Fatalf("Failed to insert %s row: %v", table, err)
	}
}
