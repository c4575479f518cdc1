// Package tags extracts metadata from audio files.
// Extraction is strictly read-only: files are opened for reading and
// never modified.
package tags

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// File extensions considered during directory walks. The extractor still
// classifies by content signature before parsing; the extension check is
// only a cheap prefilter.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtOPUS = ".opus"
	ExtOGG  = ".ogg"
	ExtOGA  = ".oga"
	ExtM4A  = ".m4a"
	ExtMP4  = ".mp4"
)

// ErrUnsupported reports that a file is not recognized as audio.
// It is a classification, not a failure: callers skip such files.
var ErrUnsupported = errors.New("tags: not a supported audio file")

// ExtractionError reports an audio-like file whose metadata could not be
// parsed. Scans record it per file and keep going.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("tags: extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Metadata is the normalized record extracted from one audio file.
// Optional fields are left at their zero value when absent; partial
// metadata is valid and searchable on the fields present.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	TrackNumber int           // 0 when unknown
	Duration    time.Duration // 0 when unknown
	Format      string        // container tag, e.g. "MP3", "FLAC"
}

// IsAudioFile returns true if the path has a supported audio extension.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(path)
	if idx := strings.LastIndex(ext, "."); idx >= 0 {
		ext = ext[idx:]
	} else {
		return false
	}
	switch ext {
	case ExtMP3, ExtFLAC, ExtOPUS, ExtOGG, ExtOGA, ExtM4A, ExtMP4:
		return true
	}
	return false
}
