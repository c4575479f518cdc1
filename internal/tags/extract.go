package tags

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// Extractor reads metadata records from audio files on disk.
// It is stateless and safe for concurrent use.
type Extractor struct{}

// NewExtractor returns a ready-to-use extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract classifies path by content signature and parses its metadata.
// It returns ErrUnsupported for non-audio files and *ExtractionError for
// audio files whose metadata cannot be parsed. Missing optional fields
// are left unset rather than failing the record.
func (e *Extractor) Extract(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	_, fileType, err := tag.Identify(f)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	if fileType == tag.UnknownFileType {
		// No recognizable container signature. A bare MP3 stream without
		// an ID3 header still parses with TagLib; anything else is not
		// audio as far as the index is concerned.
		if !IsAudioFile(path) {
			return nil, ErrUnsupported
		}
		m, tlErr := readWithTaglib(path)
		if tlErr != nil {
			return nil, ErrUnsupported
		}
		return m, nil
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			// Recognized audio without tags: index it under its filename.
			md := &Metadata{
				Title:  filepath.Base(path),
				Format: formatTag(fileType, path),
			}
			readAudioProperties(path, md)
			return md, nil
		}
		// dhowden/tag has trouble with some UTF-16 ID3 tags and some
		// ffmpeg-created M4A files; TagLib handles those.
		md, tlErr := readWithTaglib(path)
		if tlErr != nil {
			return nil, &ExtractionError{Path: path, Err: err}
		}
		md.Format = formatTag(fileType, path)
		return md, nil
	}

	title := m.Title()
	if title == "" {
		title = filepath.Base(path)
	}
	track, _ := m.Track()

	md := &Metadata{
		Title:       title,
		Artist:      m.Artist(),
		Album:       m.Album(),
		Genre:       m.Genre(),
		TrackNumber: track,
		Format:      formatTag(fileType, path),
	}
	readAudioProperties(path, md)
	return md, nil
}

// readWithTaglib reads metadata using TagLib as fallback when dhowden/tag
// cannot parse the file.
func readWithTaglib(path string) (*Metadata, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}

	get := func(key string) string {
		if values, ok := rawTags[key]; ok && len(values) > 0 {
			return values[0]
		}
		return ""
	}

	title := get(taglib.Title)
	if title == "" {
		title = filepath.Base(path)
	}

	md := &Metadata{
		Title:       title,
		Artist:      get(taglib.Artist),
		Album:       get(taglib.Album),
		Genre:       get(taglib.Genre),
		TrackNumber: parseTrackNumber(get(taglib.TrackNumber)),
		Format:      extFormat(path),
	}
	readAudioProperties(path, md)
	return md, nil
}

// readAudioProperties fills in stream properties. Best effort: a file
// with unreadable properties still yields valid tag metadata.
func readAudioProperties(path string, md *Metadata) {
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return
	}
	md.Duration = props.Length
}

// parseTrackNumber parses a track number that may be "N" or "N/M" format.
func parseTrackNumber(s string) int {
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "/"); idx > 0 {
		s = s[:idx]
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// formatTag maps a detected file type to the stored format tag.
func formatTag(ft tag.FileType, path string) string {
	if ft != tag.UnknownFileType {
		return string(ft)
	}
	return extFormat(path)
}

// extFormat derives a format tag from the file extension.
func extFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(ext[1:])
}
