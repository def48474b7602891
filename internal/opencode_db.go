package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// LoadOpenCodeDB reads messages from opencode.db. Rows are read in rowid
// order; parts are ordered by id, matching the file-name order of the
// storage tree.
func LoadOpenCodeDB(path string, opts LoadOptions) (*SessionSet, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	defer db.Close()

	for _, table := range []string{"message", "part"} {
		ok, err := TableExists(db, table)
		if err != nil {
			return nil, &StorageError{Path: path, Op: "query", Err: err}
		}
		if !ok {
			return nil, &StorageError{Path: path, Op: "query", Err: fmt.Errorf("missing %s table", table)}
		}
	}

	titles, err := loadOpenCodeDBTitles(db)
	if err != nil {
		// Titles are optional
		LogDebug("opencode titles unavailable: %v", err)
		titles = map[string]string{}
	}

	parts, err := loadOpenCodeDBParts(db)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "query", Err: err}
	}

	rows, err := queryDataRows(db, "SELECT id, session_id, data FROM message ORDER BY rowid")
	if err != nil {
		return nil, &StorageError{Path: path, Op: "query", Err: err}
	}

	set := NewSessionSet()
	for _, row := range rows {
		var doc openCodeMessage
		if err := json.Unmarshal([]byte(row.Data), &doc); err != nil {
			LogDebug("%v", &ParseError{Source: string(SourceOpenCode), Key: openCodeKey("message", row.ID), Err: err})
			continue
		}
		// Columns are authoritative over the document
		if row.ID != "" {
			doc.ID = row.ID
		}
		if row.Owner != "" {
			doc.SessionID = row.Owner
		}

		if msg, ok := openCodeToMessage(doc, parts[doc.ID], titles, opts); ok {
			set.Add(msg)
		}
	}

	LogDebug("opencode db: %d messages in %d sessions", set.MessageCount(), set.Len())
	return set, nil
}

func loadOpenCodeDBTitles(db *sql.DB) (map[string]string, error) {
	ok, err := TableExists(db, "session")
	if err != nil || !ok {
		return nil, err
	}

	rows, err := db.Query("SELECT id, title FROM session")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	titles := make(map[string]string)
	for rows.Next() {
		var id string
		var title sql.NullString
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if title.Valid && title.String != "" {
			titles[id] = title.String
		}
	}
	return titles, rows.Err()
}

func loadOpenCodeDBParts(db *sql.DB) (map[string][]openCodePart, error) {
	rows, err := queryDataRows(db, "SELECT id, message_id, data FROM part ORDER BY message_id, id")
	if err != nil {
		return nil, err
	}

	parts := make(map[string][]openCodePart)
	for _, row := range rows {
		var part openCodePart
		if err := json.Unmarshal([]byte(row.Data), &part); err != nil {
			LogDebug("%v", &ParseError{Source: string(SourceOpenCode), Key: openCodeKey("part", row.ID), Err: err})
			continue
		}
		parts[row.Owner] = append(parts[row.Owner], part)
	}
	return parts, nil
}
