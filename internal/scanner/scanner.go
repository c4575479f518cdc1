// Package scanner reconciles the library index with the filesystem.
// A scan cycle walks the configured roots, extracts metadata from new
// and changed files, and removes vanished ones. Scanned files are only
// ever opened for reading.
package scanner

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/acrouzet/phono/internal/library"
	"github.com/acrouzet/phono/internal/tags"
)

// ErrScanInProgress reports that a scan cycle is already running on this
// scanner. Concurrent scan requests fail fast instead of queueing.
var ErrScanInProgress = errors.New("scanner: scan already in progress")

// Extractor produces a metadata record for an audio file.
type Extractor interface {
	Extract(path string) (*tags.Metadata, error)
}

// Options tune a Scanner. The zero value gets sensible defaults.
type Options struct {
	Workers        int  // parallel metadata extraction workers (default 8)
	FollowSymlinks bool // follow directory symlinks, cycle-safe
	IncludeHidden  bool // descend into dot-directories and index dotfiles
}

// Scanner runs scan cycles against one library index.
// At most one cycle runs at a time; Search and streaming reads stay
// responsive throughout because every index write is its own
// record-granular transaction.
type Scanner struct {
	lib       *library.Library
	extractor Extractor
	opts      Options
	log       zerolog.Logger

	running atomic.Bool
}

func New(lib *library.Library, extractor Extractor, opts Options, log zerolog.Logger) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	return &Scanner{
		lib:       lib,
		extractor: extractor,
		opts:      opts,
		log:       log.With().Str("component", "scanner").Logger(),
	}
}

// extractResult carries one processed file from the workers to the
// sequential database writer.
type extractResult struct {
	path string
	fp   library.Fingerprint
	md   *tags.Metadata
	err  error
	new  bool
}

// Scan runs one full walk-and-reconcile cycle over roots.
//
// Per-file failures are accumulated in the report and never abort the
// cycle; a previously indexed file whose extraction fails is retained
// until a later cycle confirms it gone. An unreadable root aborts only
// that root. Returns ErrScanInProgress when a cycle is already active.
func (s *Scanner) Scan(ctx context.Context, roots []string) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.running.Store(false)

	report := &Report{Roots: roots, Started: time.Now()}

	// Phase 1: walk, building the observed path set for this cycle.
	files, observed, canonRoots := s.discover(roots, report)

	known, err := s.lib.KnownFiles()
	if err != nil {
		return nil, err
	}

	// Phase 2: extract and upsert new or changed files. Unchanged
	// fingerprints skip extraction entirely.
	toProcess := make([]fileEntry, 0, len(files))
	for _, f := range files {
		if fp, ok := known[f.path]; ok && fp == f.fp {
			report.Unchanged++
			continue
		}
		_, existed := known[f.path]
		f.new = !existed
		toProcess = append(toProcess, f)
	}
	if err := s.processFiles(ctx, toProcess, report); err != nil {
		report.Finished = time.Now()
		return report, err
	}

	// Phase 3: reconcile. Paths known before the cycle but not observed
	// are gone; this is the only deletion path.
	for path := range known {
		if !underAnyRoot(path, canonRoots) {
			continue
		}
		if _, ok := observed[path]; ok {
			continue
		}
		if err := s.lib.Remove(path); err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Err: err})
			continue
		}
		report.Removed = append(report.Removed, path)
	}

	report.Finished = time.Now()
	s.log.Info().
		Int("added", len(report.Added)).
		Int("updated", len(report.Updated)).
		Int("removed", len(report.Removed)).
		Int("unchanged", report.Unchanged).
		Int("errors", len(report.Errors)).
		Dur("elapsed", report.Finished.Sub(report.Started)).
		Msg("scan complete")
	return report, nil
}

// processFiles extracts metadata in parallel and writes results to the
// index sequentially, one transaction per record.
func (s *Scanner) processFiles(ctx context.Context, entries []fileEntry, report *Report) error {
	if len(entries) == 0 {
		return nil
	}

	resultCh := make(chan extractResult, s.opts.Workers)

	p := pool.New().WithMaxGoroutines(s.opts.Workers)
	go func() {
		for _, f := range entries {
			if ctx.Err() != nil {
				break
			}
			p.Go(func() {
				md, err := s.extractor.Extract(f.path)
				resultCh <- extractResult{path: f.path, fp: f.fp, md: md, err: err, new: f.new}
			})
		}
		p.Wait()
		close(resultCh)
	}()

	for result := range resultCh {
		if result.err != nil {
			if errors.Is(result.err, tags.ErrUnsupported) {
				s.log.Debug().Str("path", result.path).Msg("skipping non-audio file")
				report.Skipped++
				continue
			}
			// Keep any previous index entry: the file is still present,
			// just unreadable this cycle.
			s.log.Warn().Err(result.err).Str("path", result.path).Msg("metadata extraction failed")
			report.Errors = append(report.Errors, FileError{Path: result.path, Err: result.err})
			continue
		}
		if err := s.lib.Upsert(result.path, result.fp, result.md); err != nil {
			report.Errors = append(report.Errors, FileError{Path: result.path, Err: err})
			continue
		}
		if result.new {
			report.Added = append(report.Added, result.path)
		} else {
			report.Updated = append(report.Updated, result.path)
		}
	}
	return ctx.Err()
}
