package library

import (
	"errors"
	"testing"
	"time"

	"github.com/acrouzet/phono/internal/db"
	"github.com/acrouzet/phono/internal/tags"
)

// setupTestLib creates a library over an in-memory database.
func setupTestLib(t *testing.T) *Library {
	t.Helper()

	sqlDB, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return New(sqlDB)
}

func TestUpsertRoundTrip(t *testing.T) {
	lib := setupTestLib(t)

	md := &tags.Metadata{
		Title:       "Harvest Moon",
		Artist:      "Neil Young",
		Album:       "Harvest Moon",
		Genre:       "Folk",
		TrackNumber: 3,
		Duration:    303 * time.Second,
		Format:      "FLAC",
	}
	fp := Fingerprint{Size: 123456, Mtime: 1700000000}

	if err := lib.Upsert("/music/neil/harvest_moon.flac", fp, md); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := lib.ByPath("/music/neil/harvest_moon.flac")
	if err != nil {
		t.Fatalf("ByPath failed: %v", err)
	}
	if got.Title != md.Title || got.Artist != md.Artist || got.Album != md.Album || got.Genre != md.Genre {
		t.Errorf("metadata mismatch: got %+v", got)
	}
	if got.TrackNumber != 3 {
		t.Errorf("expected track 3, got %d", got.TrackNumber)
	}
	if got.Duration != 303*time.Second {
		t.Errorf("expected duration 5m3s, got %s", got.Duration)
	}
	if got.Size != fp.Size || got.Mtime != fp.Mtime {
		t.Errorf("fingerprint mismatch: got size=%d mtime=%d", got.Size, got.Mtime)
	}
	if got.Format != "FLAC" {
		t.Errorf("expected format FLAC, got %s", got.Format)
	}
}

func TestUpsertRoundTrip_OptionalFieldsAbsent(t *testing.T) {
	lib := setupTestLib(t)

	// Only a title: everything optional stays unset.
	md := &tags.Metadata{Title: "untitled.mp3", Format: "MP3"}
	if err := lib.Upsert("/music/untitled.mp3", Fingerprint{Size: 10, Mtime: 20}, md); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := lib.ByPath("/music/untitled.mp3")
	if err != nil {
		t.Fatalf("ByPath failed: %v", err)
	}
	if got.Artist != "" || got.Album != "" || got.Genre != "" {
		t.Errorf("expected empty optional strings, got %+v", got)
	}
	if got.TrackNumber != 0 {
		t.Errorf("expected track 0, got %d", got.TrackNumber)
	}
	if got.Duration != 0 {
		t.Errorf("expected zero duration, got %s", got.Duration)
	}
}

func TestUpsertReplacesMetadata(t *testing.T) {
	lib := setupTestLib(t)
	path := "/music/song.mp3"

	old := &tags.Metadata{Title: "Old Title", Artist: "Old Artist", Format: "MP3"}
	if err := lib.Upsert(path, Fingerprint{Size: 1, Mtime: 1}, old); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	updated := &tags.Metadata{Title: "New Title", Artist: "New Artist", Format: "MP3"}
	if err := lib.Upsert(path, Fingerprint{Size: 2, Mtime: 2}, updated); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := lib.ByPath(path)
	if err != nil {
		t.Fatalf("ByPath failed: %v", err)
	}
	if got.Title != "New Title" {
		t.Errorf("expected replaced title, got %q", got.Title)
	}

	// Old tokens must be gone with the old metadata.
	results, err := lib.Search("old", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for stale token, got %d", len(results))
	}
	results, err = lib.Search("new", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result for new token, got %d", len(results))
	}
}

func TestByID(t *testing.T) {
	lib := setupTestLib(t)

	md := &tags.Metadata{Title: "Song", Format: "MP3"}
	if err := lib.Upsert("/music/a.mp3", Fingerprint{Size: 1, Mtime: 1}, md); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	byPath, err := lib.ByPath("/music/a.mp3")
	if err != nil {
		t.Fatalf("ByPath failed: %v", err)
	}
	byID, err := lib.ByID(byPath.ID)
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if byID.Path != byPath.Path {
		t.Errorf("expected same record, got %q and %q", byID.Path, byPath.Path)
	}
}

func TestNotFound(t *testing.T) {
	lib := setupTestLib(t)

	if _, err := lib.ByPath("/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := lib.ByID(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	lib := setupTestLib(t)

	md := &tags.Metadata{Title: "Ephemeral", Format: "MP3"}
	if err := lib.Upsert("/music/gone.mp3", Fingerprint{Size: 1, Mtime: 1}, md); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := lib.Remove("/music/gone.mp3"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, err := lib.ByPath("/music/gone.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after remove, got %v", err)
	}

	// Tokens go with the record.
	results, err := lib.Search("ephemeral", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results after remove, got %d", len(results))
	}

	// Removing an unknown path is a no-op.
	if err := lib.Remove("/music/gone.mp3"); err != nil {
		t.Errorf("Remove of unknown path failed: %v", err)
	}
}

func TestKnownFiles(t *testing.T) {
	lib := setupTestLib(t)

	if err := lib.Upsert("/music/a.mp3", Fingerprint{Size: 100, Mtime: 10}, &tags.Metadata{Title: "A", Format: "MP3"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := lib.Upsert("/music/b.mp3", Fingerprint{Size: 200, Mtime: 20}, &tags.Metadata{Title: "B", Format: "MP3"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	known, err := lib.KnownFiles()
	if err != nil {
		t.Fatalf("KnownFiles failed: %v", err)
	}
	if len(known) != 2 {
		t.Fatalf("expected 2 known files, got %d", len(known))
	}
	if known["/music/a.mp3"] != (Fingerprint{Size: 100, Mtime: 10}) {
		t.Errorf("unexpected fingerprint for a.mp3: %+v", known["/music/a.mp3"])
	}
}

func TestCountAndAll(t *testing.T) {
	lib := setupTestLib(t)

	paths := []string{"/music/c.mp3", "/music/a.mp3", "/music/b.mp3"}
	for _, p := range paths {
		if err := lib.Upsert(p, Fingerprint{Size: 1, Mtime: 1}, &tags.Metadata{Title: p, Format: "MP3"}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	count, err := lib.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}

	all, err := lib.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 files, got %d", len(all))
	}
	// Ordered by path.
	if all[0].Path != "/music/a.mp3" || all[2].Path != "/music/c.mp3" {
		t.Errorf("expected path order, got %q ... %q", all[0].Path, all[2].Path)
	}
}

func TestRebuildTokens(t *testing.T) {
	lib := setupTestLib(t)

	if err := lib.Upsert("/music/a.mp3", Fingerprint{Size: 1, Mtime: 1}, &tags.Metadata{Title: "Blue Train", Artist: "John Coltrane", Format: "MP3"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Wreck the derived table, then rebuild it from stored metadata.
	if _, err := lib.DB().Exec(`DELETE FROM search_tokens`); err != nil {
		t.Fatalf("failed to clear tokens: %v", err)
	}
	results, err := lib.Search("coltrane", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results with empty token table, got %d", len(results))
	}

	if err := lib.RebuildTokens(); err != nil {
		t.Fatalf("RebuildTokens failed: %v", err)
	}
	results, err = lib.Search("coltrane", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result after rebuild, got %d", len(results))
	}
}
