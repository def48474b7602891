package internal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenDatabase opens a SQLite database in read-only mode
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

// TableExists reports whether a table is present in the database
func TableExists(db *sql.DB, table string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT name FROM sqlite_master
			WHERE type='table' AND name=?
		)
	`, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for %s table: %w", table, err)
	}
	return exists, nil
}

// DataRow is one row of an opencode table whose payload is a JSON document
type DataRow struct {
	ID    string
	Owner string // session_id for messages, message_id for parts
	Data  string
}

// queryDataRows runs a query selecting (id, owner, data) and skips NULL payloads
func queryDataRows(db *sql.DB, query string) ([]DataRow, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []DataRow
	for rows.Next() {
		var row DataRow
		var owner, data sql.NullString
		if err := rows.Scan(&row.ID, &owner, &data); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if !data.Valid {
			continue
		}
		row.Owner = owner.String
		row.Data = data.String
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return out, nil
}
