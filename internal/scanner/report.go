package scanner

import (
	"time"
)

// FileError records one path that could not be processed during a cycle.
type FileError struct {
	Path string
	Err  error
}

// Report summarizes one scan cycle. It is ephemeral: nothing in it is
// persisted, the index itself carries all durable state.
type Report struct {
	Roots    []string
	Started  time.Time
	Finished time.Time

	Added   []string // canonical paths newly indexed this cycle
	Updated []string // paths re-extracted because their fingerprint changed
	Removed []string // paths deleted from the index after vanishing from disk

	Unchanged int // fingerprint matches, extraction skipped
	Skipped   int // files classified as non-audio

	Errors     []FileError // per-file failures, never fatal to the cycle
	RootErrors []FileError // roots that could not be walked at all
}

// Elapsed returns the wall-clock duration of the cycle.
func (r *Report) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}
