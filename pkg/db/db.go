package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

var DB *sql.DB

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash BLOB NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	address1      TEXT NOT NULL DEFAULT '',
	city          TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	postal_code   TEXT NOT NULL DEFAULT '',
	date_of_birth TEXT NOT NULL DEFAULT '',
	ssn_last4     TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	status        TEXT NOT NULL
);`

// InitDB opens the database at path into DB and applies the schema.
func InitDB(path string) error {
	conn, err := Open(path)
	if err != nil {
		return err
	}
	DB = conn
	return nil
}

// Open opens a SQLite database and applies the schema. ":memory:" is accepted for tests.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// each pooled connection would get its own empty database
		conn.SetMaxOpenConns(1)
	}
	if pingErr := conn.Ping(); pingErr != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, pingErr)
	}
	if _, execErr := conn.Exec(schema); execErr != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", execErr)
	}
	log.WithField("path", path).Debug("Database ready")
	return conn, nil
}
