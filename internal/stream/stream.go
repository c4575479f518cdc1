// Package stream serves byte ranges of indexed audio files.
// The index is consulted only to resolve the file path; once a handle
// is open it reads straight from the filesystem, read-only, and is
// unaffected by concurrent index mutations.
package stream

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/acrouzet/phono/internal/library"
)

// ErrRangeNotSatisfiable reports a requested byte range that does not
// overlap the file's current size.
var ErrRangeNotSatisfiable = errors.New("stream: requested range not satisfiable")

// Range selects the half-open byte interval [Start, End).
// End <= 0 means "to end of file".
type Range struct {
	Start int64
	End   int64
}

// Server resolves indexed files and opens bounded readers over them.
type Server struct {
	lib *library.Library
}

func NewServer(lib *library.Library) *Server {
	return &Server{lib: lib}
}

// Open resolves id through the index and opens the requested range.
//
// A file that vanished between indexing and this call (a race with a
// scan or an external deletion) yields library.ErrNotFound rather than
// a raw I/O error. A Start at or beyond the file's current size yields
// ErrRangeNotSatisfiable. The caller owns the returned handle and must
// Close it on every path.
func (s *Server) Open(id int64, rng *Range) (*Handle, error) {
	mf, err := s.lib.ByID(id)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(mf.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, library.ErrNotFound
		}
		return nil, fmt.Errorf("stream: open %s: %w", mf.Path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stream: stat %s: %w", mf.Path, err)
	}
	size := info.Size()

	start, length, err := resolveRange(rng, size)
	if err != nil {
		f.Close()
		return nil, err
	}

	if start > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("stream: seek %s: %w", mf.Path, err)
		}
	}

	return &Handle{
		f:           f,
		r:           io.LimitReader(f, length),
		start:       start,
		length:      length,
		size:        size,
		contentType: contentType(mf.Format, mf.Path),
	}, nil
}

// resolveRange clamps rng against the file's current size.
func resolveRange(rng *Range, size int64) (start, length int64, err error) {
	if rng == nil {
		return 0, size, nil
	}
	start = rng.Start
	if start < 0 {
		return 0, 0, ErrRangeNotSatisfiable
	}
	if start > size || (start == size && size > 0) {
		return 0, 0, ErrRangeNotSatisfiable
	}
	end := rng.End
	if end <= 0 || end > size {
		end = size
	}
	if end < start {
		return 0, 0, ErrRangeNotSatisfiable
	}
	return start, end - start, nil
}

// Handle is a bounded, lazily-read view over one range of one file.
// It reads exactly Length bytes starting at Start. Close releases the
// underlying file and is safe to call at any point, including after a
// partial read.
type Handle struct {
	f           *os.File
	r           io.Reader
	start       int64
	length      int64
	size        int64
	contentType string
}

func (h *Handle) Read(p []byte) (int, error) {
	return h.r.Read(p)
}

func (h *Handle) Close() error {
	return h.f.Close()
}

// Start returns the resolved first byte offset of the range.
func (h *Handle) Start() int64 { return h.start }

// Length returns the number of bytes the handle will yield.
func (h *Handle) Length() int64 { return h.length }

// Size returns the file's total size at open time, for Content-Range
// style bookkeeping by the transport layer.
func (h *Handle) Size() int64 { return h.size }

// ContentType returns the MIME type of the underlying file.
func (h *Handle) ContentType() string { return h.contentType }

// contentType maps the stored format tag to a MIME type, falling back
// to the extension and finally to octet-stream.
func contentType(format, path string) string {
	switch strings.ToUpper(format) {
	case "MP3":
		return "audio/mpeg"
	case "FLAC":
		return "audio/flac"
	case "OGG", "OGA", "OPUS":
		return "audio/ogg"
	case "M4A", "M4B", "M4P", "MP4", "AAC", "ALAC":
		return "audio/mp4"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
