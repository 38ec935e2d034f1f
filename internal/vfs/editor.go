package vfs

import (
	"fmt"
	"sort"
	"strings"
)

// ToEnd is the view range end that selects everything through the last line.
// Any negative End is treated the same way.
const ToEnd = -1

// Range is an inclusive, 1-based line range.
type Range struct {
	Start int
	End   int
}

// View renders a file with 1-based line numbers, one "<n>\t<line>" per line.
// A nil range renders the whole file; an End past the last line is clamped.
// Viewing a directory lists its immediate children instead.
func (fs *FileSystem) View(path string, rng *Range) (string, error) {
	p, err := Normalize(path)
	if err != nil {
		return "", err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	f, ok := fs.files[p]
	if !ok {
		if fs.isDirLocked(p) {
			return fs.listDirLocked(p), nil
		}
		return "", &FileError{Op: "view", Path: p, Err: ErrNotFound}
	}

	start, end := 1, len(f.Lines)
	if rng != nil {
		count := len(f.Lines)
		if rng.Start < 1 || (rng.End >= 0 && rng.Start > rng.End) || rng.Start > count {
			return "", &FileError{
				Op:        "view",
				Path:      p,
				Err:       ErrInvalidRange,
				LineCount: count,
				Start:     rng.Start,
				End:       rng.End,
			}
		}
		start = rng.Start
		if rng.End >= 0 && rng.End < end {
			end = rng.End
		}
	}

	return renderLines(f.Lines, start, end), nil
}

// Create writes text to path, overwriting any file already there. Missing
// parent directories need no creation since directories are derived.
func (fs *FileSystem) Create(path, text string) (bool, error) {
	return fs.Put(path, text)
}

// Replace substitutes newStr for the single occurrence of oldStr in the
// file's full text. Zero or several occurrences leave the file untouched.
func (fs *FileSystem) Replace(path, oldStr, newStr string) error {
	p, err := Normalize(path)
	if err != nil {
		return err
	}
	if oldStr == "" {
		return &FileError{Op: "str_replace", Path: p, Err: fmt.Errorf("%w: old_str must not be empty", ErrInvalidArgument)}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, ok := fs.files[p]
	if !ok {
		return &FileError{Op: "str_replace", Path: p, Err: ErrNotFound}
	}
	if !keepsCR(f.Lines) {
		oldStr = normalizeNewlines(oldStr)
		newStr = normalizeNewlines(newStr)
	}

	content := strings.Join(f.Lines, "\n")
	switch n := strings.Count(content, oldStr); {
	case n == 0:
		return &FileError{Op: "str_replace", Path: p, Err: ErrNoMatch, LineCount: len(f.Lines)}
	case n > 1:
		return &FileError{Op: "str_replace", Path: p, Err: ErrAmbiguousMatch, Matches: n, LineCount: len(f.Lines)}
	}

	updated := strings.Replace(content, oldStr, newStr, 1)
	fs.files[p] = &File{
		Path:     p,
		Lines:    splitLines(updated),
		Revision: f.Revision + 1,
		Newline:  f.Newline,
	}
	return nil
}

// Insert places text before the 0-based line index; line == LineCount
// appends. Every line of a multi-line text is inserted in order. It returns
// the number of lines added.
func (fs *FileSystem) Insert(path string, line int, text string) (int, error) {
	p, err := Normalize(path)
	if err != nil {
		return 0, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, ok := fs.files[p]
	if !ok {
		return 0, &FileError{Op: "insert", Path: p, Err: ErrNotFound}
	}

	count := len(f.Lines)
	if line < 0 || line > count {
		return 0, &FileError{Op: "insert", Path: p, Err: ErrInvalidRange, Line: line, LineCount: count}
	}

	if !keepsCR(f.Lines) {
		text = normalizeNewlines(text)
	}
	added := strings.Split(text, "\n")
	lines := make([]string, 0, count+len(added))
	lines = append(lines, f.Lines[:line]...)
	lines = append(lines, added...)
	lines = append(lines, f.Lines[line:]...)

	fs.files[p] = &File{
		Path:     p,
		Lines:    lines,
		Revision: f.Revision + 1,
		Newline:  f.Newline,
	}
	return len(added), nil
}

func renderLines(lines []string, start, end int) string {
	var b strings.Builder
	for i := start; i <= end; i++ {
		if i > start {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\t%s", i, lines[i-1])
	}
	return b.String()
}

// listDirLocked renders the immediate children of dir, directories
// suffixed with "/".
func (fs *FileSystem) listDirLocked(dir string) string {
	prefix := dirPrefix(dir)
	seen := make(map[string]bool)
	for key := range fs.files {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		if idx := strings.Index(rest, "/"); idx >= 0 {
			rest = rest[:idx+1]
		}
		seen[rest] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n")
}

// splitLines splits LF-joined text, treating empty text as no lines.
func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
