// Package library is the persistent index of the music collection.
// It maps canonical file paths to metadata records and search tokens,
// and is the single source of truth for what is known; the filesystem
// remains the single source of truth for what exists.
package library

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound reports that no indexed file matches the given path or ID.
var ErrNotFound = errors.New("library: media file not found")

// Fingerprint is a cheap change signature for an indexed file.
// Matching size and mtime means the file is assumed unchanged and its
// contents are not re-read during scans.
type Fingerprint struct {
	Size  int64
	Mtime int64
}

// MediaFile is one indexed audio file together with its metadata.
type MediaFile struct {
	ID          int64
	Path        string
	Size        int64
	Mtime       int64
	Format      string
	Title       string
	Artist      string
	Album       string
	Genre       string
	TrackNumber int           // 0 when unknown
	Duration    time.Duration // 0 when unknown
	LastSeen    int64
	AddedAt     int64
	UpdatedAt   int64
}

// Library provides read and write access to the index.
// All write operations are record-granular transactions: a reader never
// observes a file with missing or half-updated metadata or tokens.
type Library struct {
	db *sql.DB
}

func New(db *sql.DB) *Library {
	return &Library{db: db}
}

// DB exposes the underlying handle for callers that manage schema or
// transactions themselves. Tests use it.
func (l *Library) DB() *sql.DB {
	return l.db
}
