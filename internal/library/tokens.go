package library

import (
	"database/sql"
	"fmt"

	dbutil "github.com/acrouzet/phono/internal/db"
	"github.com/acrouzet/phono/internal/tags"
)

// Search tokens are fully derived from metadata: they are rewritten with
// every upsert and can be rebuilt from scratch at any time.

// Indexed metadata fields, in ranking order.
const (
	fieldTitle  = "title"
	fieldArtist = "artist"
	fieldAlbum  = "album"
	fieldGenre  = "genre"
)

// fieldWeight ranks matches: a title hit outranks an artist hit, which
// outranks an album or genre hit.
func fieldWeight(field string) int {
	switch field {
	case fieldTitle:
		return 3
	case fieldArtist:
		return 2
	default:
		return 1
	}
}

// replaceTokens drops and rewrites the token rows for one file.
// Runs inside the caller's transaction.
func replaceTokens(tx *sql.Tx, fileID int64, md *tags.Metadata) error {
	if _, err := tx.Exec(`DELETE FROM search_tokens WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("library: clear tokens: %w", err)
	}

	fields := map[string]string{
		fieldTitle:  md.Title,
		fieldArtist: md.Artist,
		fieldAlbum:  md.Album,
		fieldGenre:  md.Genre,
	}
	for field, text := range fields {
		for _, token := range Tokenize(text) {
			_, err := tx.Exec(`
				INSERT OR IGNORE INTO search_tokens (token, field, file_id) VALUES (?, ?, ?)
			`, token, field, fileID)
			if err != nil {
				return fmt.Errorf("library: insert token %q: %w", token, err)
			}
		}
	}
	return nil
}

// RebuildTokens regenerates the whole token table from stored metadata.
// Useful after normalization changes or a corrupted token table; the
// result is deterministic.
func (l *Library) RebuildTokens() error {
	files, err := l.All()
	if err != nil {
		return err
	}
	return dbutil.WithTx(l.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM search_tokens`); err != nil {
			return err
		}
		for i := range files {
			f := &files[i]
			md := &tags.Metadata{
				Title:  f.Title,
				Artist: f.Artist,
				Album:  f.Album,
				Genre:  f.Genre,
			}
			if err := replaceTokens(tx, f.ID, md); err != nil {
				return err
			}
		}
		return nil
	})
}
