// Package db owns the SQLite connection and schema for the media index.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const currentSchemaVersion = 1

// Open opens (creating if necessary) the index database at path.
// WAL mode keeps readers responsive while a scan writes record by record.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return sqlDB, nil
}

// OpenMemory opens an in-memory database with the full schema. Used by tests.
func OpenMemory() (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, err
	}
	// An in-memory database disappears when its last connection closes.
	sqlDB.SetMaxOpenConns(1)
	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

func initSchema(sqlDB *sql.DB) error {
	_, err := sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS media_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			size INTEGER NOT NULL,
			mtime INTEGER NOT NULL,
			format TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			genre TEXT,
			track_number INTEGER,
			duration_ms INTEGER,
			last_seen INTEGER NOT NULL,
			added_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_media_files_artist ON media_files(artist);
		CREATE INDEX IF NOT EXISTS idx_media_files_album ON media_files(artist, album);

		CREATE TABLE IF NOT EXISTS search_tokens (
			token TEXT NOT NULL,
			field TEXT NOT NULL,
			file_id INTEGER NOT NULL REFERENCES media_files(id) ON DELETE CASCADE,
			PRIMARY KEY (token, field, file_id)
		) WITHOUT ROWID;

		CREATE INDEX IF NOT EXISTS idx_search_tokens_file ON search_tokens(file_id);
	`)
	if err != nil {
		return err
	}

	_, err = sqlDB.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
