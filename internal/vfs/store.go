// internal/vfs/store.go
package vfs

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// File is a text file held as an ordered sequence of lines.
type File struct {
	Path     string
	Lines    []string
	Revision uint64
	// Newline is the terminator used when the content is reassembled.
	Newline string
}

// Content joins the lines back together with the file's terminator.
func (f *File) Content() string {
	return strings.Join(f.Lines, f.Newline)
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int {
	return len(f.Lines)
}

func (f *File) clone() *File {
	lines := make([]string, len(f.Lines))
	copy(lines, f.Lines)
	return &File{
		Path:     f.Path,
		Lines:    lines,
		Revision: f.Revision,
		Newline:  f.Newline,
	}
}

// FileSystem is an in-memory, path-keyed store of text files. Directories are
// not stored: a directory is any prefix shared by stored paths.
//
// Reads may run concurrently; create, replace and insert are serialized.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string]*File
}

// New returns an empty file system.
func New() *FileSystem {
	return &FileSystem{
		files: make(map[string]*File),
	}
}

// Get returns a copy of the file stored at path.
func (fs *FileSystem) Get(path string) (*File, error) {
	p, err := Normalize(path)
	if err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	f, ok := fs.files[p]
	if !ok {
		return nil, &FileError{Op: "get", Path: p, Err: ErrNotFound}
	}
	return f.clone(), nil
}

// Exists reports whether a file is stored at path.
func (fs *FileSystem) Exists(path string) bool {
	p, err := Normalize(path)
	if err != nil {
		return false
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, ok := fs.files[p]
	return ok
}

// Put stores content at path, replacing any existing file. It reports
// whether an existing file was overwritten.
func (fs *FileSystem) Put(path, content string) (bool, error) {
	p, err := Normalize(path)
	if err != nil {
		return false, err
	}

	lines, newline := splitContent(content)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.checkFilePathLocked(p); err != nil {
		return false, err
	}

	old, existed := fs.files[p]
	f := &File{Path: p, Lines: lines, Newline: newline, Revision: 1}
	if existed {
		f.Revision = old.Revision + 1
	}
	fs.files[p] = f
	return existed, nil
}

// Len returns the number of stored files.
func (fs *FileSystem) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.files)
}

// List returns the sorted paths of all files below dir.
func (fs *FileSystem) List(dir string) ([]string, error) {
	d, err := Normalize(dir)
	if err != nil {
		return nil, err
	}
	prefix := dirPrefix(d)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var paths []string
	for p := range fs.files {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Snapshot returns the content of every stored file keyed by path.
func (fs *FileSystem) Snapshot() map[string]string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make(map[string]string, len(fs.files))
	for p, f := range fs.files {
		out[p] = f.Content()
	}
	return out
}

// Load replaces the whole store with the given snapshot. Paths are
// validated before anything is swapped in.
func (fs *FileSystem) Load(snapshot map[string]string) error {
	next := New()
	paths := make([]string, 0, len(snapshot))
	for p := range snapshot {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if _, err := next.Put(p, snapshot[p]); err != nil {
			return err
		}
	}

	fs.mu.Lock()
	fs.files = next.files
	fs.mu.Unlock()
	return nil
}

func (fs *FileSystem) isDirLocked(p string) bool {
	if p == Root {
		return true
	}
	prefix := dirPrefix(p)
	for key := range fs.files {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// checkFilePathLocked rejects paths that cannot hold a file because they
// would collide with the derived directory structure.
func (fs *FileSystem) checkFilePathLocked(p string) error {
	if fs.isDirLocked(p) {
		return &PathError{Path: p, Err: ErrIsDirectory}
	}
	for _, dir := range ancestors(p) {
		if _, ok := fs.files[dir]; ok {
			return &PathError{Path: p, Err: fmt.Errorf("%w: %s", ErrParentIsFile, dir)}
		}
	}
	return nil
}

// splitContent breaks content into lines. Empty content has no lines.
// Content whose every line break is CRLF is held as LF lines and rejoined
// with CRLF. Anything else splits on LF alone, so the CR of a mixed file
// stays part of its line and the bytes round-trip.
func splitContent(content string) ([]string, string) {
	if n := strings.Count(content, "\n"); n > 0 && strings.Count(content, "\r\n") == n {
		return splitLines(strings.ReplaceAll(content, "\r\n", "\n")), "\r\n"
	}
	return splitLines(content), "\n"
}

// normalizeNewlines converts CRLF terminators to LF.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// keepsCR reports whether lines still carry carriage returns, which only
// happens for files with mixed line endings. Edit text for such files is
// matched and inserted verbatim.
func keepsCR(lines []string) bool {
	for _, l := range lines {
		if strings.Contains(l, "\r") {
			return true
		}
	}
	return false
}
