package database

import (
	"database/sql"
	"fmt"

	"ovc-go/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return newSQLDatabase(db, migrations.SQLite, path), nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLDatabase {
	return newSQLDatabase(db, migrations.SQLite, "")
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: every :memory: connection is a separate database, and
	// SQLite allows a single writer anyway. The PRAGMAs below are per
	// connection, so the pool must not grow past it.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return db, nil
}

// BackupTo creates a complete copy of a SQLite database at destPath using VACUUM INTO.
func (s *SQLDatabase) BackupTo(destPath string) error {
	if s.engine != migrations.SQLite {
		return fmt.Errorf("backup is only supported for sqlite databases")
	}
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}
