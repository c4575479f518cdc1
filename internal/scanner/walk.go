package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/acrouzet/phono/internal/library"
	"github.com/acrouzet/phono/internal/tags"
)

// fileEntry is one audio file discovered during the walk.
type fileEntry struct {
	path string // canonical absolute path
	fp   library.Fingerprint
	new  bool
}

// discover walks every root and returns the audio files found, the set
// of observed canonical paths for this cycle, and the canonicalized
// roots. An unreadable root is reported and skipped; unreadable
// subdirectories abort only their subtree.
func (s *Scanner) discover(roots []string, report *Report) (files []fileEntry, observed map[string]struct{}, canonRoots []string) {
	observed = make(map[string]struct{})
	// Real paths of directories already entered, within this cycle.
	// Following a symlink into one of them again would loop forever.
	visited := make(map[string]struct{})

	for _, root := range roots {
		canon, err := canonicalPath(root)
		if err != nil {
			report.RootErrors = append(report.RootErrors, FileError{Path: root, Err: err})
			continue
		}
		if err := s.walkRoot(canon, visited, report, func(f fileEntry) {
			if _, seen := observed[f.path]; seen {
				return
			}
			observed[f.path] = struct{}{}
			files = append(files, f)
		}); err != nil {
			report.RootErrors = append(report.RootErrors, FileError{Path: canon, Err: err})
			continue
		}
		// Only successfully walked roots take part in reconciliation, so
		// an unreadable root never causes its entries to be dropped.
		canonRoots = append(canonRoots, canon)
	}
	return files, observed, canonRoots
}

// walkRoot traverses one canonical root depth-first without recursion.
// Returns an error only when the root itself is unreadable.
func (s *Scanner) walkRoot(root string, visited map[string]struct{}, report *Report, emit func(fileEntry)) error {
	if _, err := os.ReadDir(root); err != nil {
		return err
	}
	visited[root] = struct{}{}

	dirstack := []string{root}
	for len(dirstack) > 0 {
		dir := dirstack[len(dirstack)-1]
		dirstack = dirstack[:len(dirstack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			// Only the root's readability aborts the whole root; deeper
			// failures skip their subtree and are reported.
			if dir != root {
				report.Errors = append(report.Errors, FileError{Path: dir, Err: err})
			}
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			path := filepath.Join(dir, name)

			if entry.Type()&os.ModeSymlink != 0 {
				s.followSymlink(path, visited, &dirstack, emit)
				continue
			}
			if entry.IsDir() {
				dirstack = append(dirstack, path)
				continue
			}
			if !entry.Type().IsRegular() || !tags.IsAudioFile(path) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			emit(fileEntry{
				path: path,
				fp:   library.Fingerprint{Size: info.Size(), Mtime: info.ModTime().Unix()},
			})
		}
	}
	return nil
}

// followSymlink resolves a symlink and either queues its target
// directory (at most once per cycle, so cycles terminate) or emits its
// target file under the canonical path.
func (s *Scanner) followSymlink(path string, visited map[string]struct{}, dirstack *[]string, emit func(fileEntry)) {
	if !s.opts.FollowSymlinks {
		return
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return
	}
	info, err := os.Stat(target)
	if err != nil {
		return
	}
	if info.IsDir() {
		if _, seen := visited[target]; seen {
			s.log.Debug().Str("path", path).Str("target", target).Msg("skipping circular symlink")
			return
		}
		visited[target] = struct{}{}
		*dirstack = append(*dirstack, target)
		return
	}
	if !info.Mode().IsRegular() || !tags.IsAudioFile(target) {
		return
	}
	emit(fileEntry{
		path: target,
		fp:   library.Fingerprint{Size: info.Size(), Mtime: info.ModTime().Unix()},
	})
}

// canonicalPath resolves path to its unique absolute, symlink-free form.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// underAnyRoot reports whether path lives under one of the roots.
func underAnyRoot(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
