package library

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbutil "github.com/acrouzet/phono/internal/db"
	"github.com/acrouzet/phono/internal/tags"
)

const mediaFileColumns = `id, path, size, mtime, format, title, artist, album, genre, track_number, duration_ms, last_seen, added_at, updated_at`

// Upsert inserts or replaces the record for path, replacing its metadata
// and search tokens in the same transaction. Readers either see the old
// complete record or the new complete one.
func (l *Library) Upsert(path string, fp Fingerprint, md *tags.Metadata) error {
	now := time.Now().Unix()
	return dbutil.WithTx(l.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO media_files (path, size, mtime, format, title, artist, album, genre, track_number, duration_ms, last_seen, added_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				size = excluded.size,
				mtime = excluded.mtime,
				format = excluded.format,
				title = excluded.title,
				artist = excluded.artist,
				album = excluded.album,
				genre = excluded.genre,
				track_number = excluded.track_number,
				duration_ms = excluded.duration_ms,
				last_seen = excluded.last_seen,
				updated_at = excluded.updated_at
		`, path, fp.Size, fp.Mtime, md.Format, md.Title, md.Artist, md.Album, md.Genre,
			nullableInt(int64(md.TrackNumber)), nullableInt(md.Duration.Milliseconds()), now, now, now)
		if err != nil {
			return fmt.Errorf("library: upsert %s: %w", path, err)
		}

		var id int64
		if err := tx.QueryRow(`SELECT id FROM media_files WHERE path = ?`, path).Scan(&id); err != nil {
			return fmt.Errorf("library: upsert %s: %w", path, err)
		}
		return replaceTokens(tx, id, md)
	})
}

// Remove deletes the record for path together with its tokens.
// Removing an unknown path is a no-op.
func (l *Library) Remove(path string) error {
	// Tokens go with the file via ON DELETE CASCADE.
	_, err := l.db.Exec(`DELETE FROM media_files WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("library: remove %s: %w", path, err)
	}
	return nil
}

// ByPath returns the indexed file for a canonical path.
func (l *Library) ByPath(path string) (*MediaFile, error) {
	row := l.db.QueryRow(`SELECT `+mediaFileColumns+` FROM media_files WHERE path = ?`, path)
	return scanMediaFile(row)
}

// ByID returns the indexed file with the given ID.
func (l *Library) ByID(id int64) (*MediaFile, error) {
	row := l.db.QueryRow(`SELECT `+mediaFileColumns+` FROM media_files WHERE id = ?`, id)
	return scanMediaFile(row)
}

// All returns every indexed file ordered by path.
func (l *Library) All() ([]MediaFile, error) {
	rows, err := l.db.Query(`SELECT ` + mediaFileColumns + ` FROM media_files ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []MediaFile
	for rows.Next() {
		f, err := scanMediaFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// Count returns the number of indexed files.
func (l *Library) Count() (int, error) {
	var count int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM media_files`).Scan(&count)
	return count, err
}

// KnownFiles returns path -> fingerprint for every indexed file.
// The scanner uses it to skip unchanged files without re-reading them.
func (l *Library) KnownFiles() (map[string]Fingerprint, error) {
	rows, err := l.db.Query(`SELECT path, size, mtime FROM media_files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]Fingerprint)
	for rows.Next() {
		var path string
		var fp Fingerprint
		if err := rows.Scan(&path, &fp.Size, &fp.Mtime); err != nil {
			return nil, err
		}
		known[path] = fp
	}
	return known, rows.Err()
}

type rowScanner interface {
	Scan(...any) error
}

func scanMediaFile(row rowScanner) (*MediaFile, error) {
	var f MediaFile
	var artist, album, genre sql.NullString
	var trackNum, durationMs sql.NullInt64

	err := row.Scan(&f.ID, &f.Path, &f.Size, &f.Mtime, &f.Format, &f.Title,
		&artist, &album, &genre, &trackNum, &durationMs,
		&f.LastSeen, &f.AddedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f.Artist = dbutil.NullStringValue(artist)
	f.Album = dbutil.NullStringValue(album)
	f.Genre = dbutil.NullStringValue(genre)
	f.TrackNumber = int(dbutil.NullInt64Value(trackNum))
	f.Duration = time.Duration(dbutil.NullInt64Value(durationMs)) * time.Millisecond
	return &f, nil
}

// nullableInt maps 0 to NULL so absent optional fields stay absent.
func nullableInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
