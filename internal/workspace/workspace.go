// internal/workspace/workspace.go
package workspace

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"uigen/internal/vfs"
)

// MaxFileSize bounds files picked up from disk.
const MaxFileSize = 512 * 1024

var ignoreDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// ShouldIgnore reports whether a slash separated path relative to the
// workspace root is skipped on import and watch.
func ShouldIgnore(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoreDirs[part] || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// Import reads the text files under root into virtual paths. Binary and
// oversized files are skipped.
func Import(root string) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("getting relative path: %w", err)
		}
		if ShouldIgnore(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		content, ok, err := readText(path)
		if err != nil {
			return err
		}
		if ok {
			files["/"+filepath.ToSlash(rel)] = content
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", root, err)
	}
	return files, nil
}

// Export writes files below root, creating directories as needed. It
// returns the written disk paths in order.
func Export(root string, files map[string]string) ([]string, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	written := make([]string, 0, len(paths))
	for _, p := range paths {
		clean, err := vfs.Normalize(p)
		if err != nil {
			return written, err
		}
		if clean == vfs.Root {
			return written, &vfs.PathError{Path: p, Err: vfs.ErrIsDirectory}
		}

		target := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, fmt.Errorf("creating directory for %s: %w", clean, err)
		}
		if err := os.WriteFile(target, []byte(files[p]), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", clean, err)
		}
		written = append(written, target)
	}
	return written, nil
}

// readText returns the file content, or ok=false for files that are too
// large or look binary.
func readText(path string) (string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, err
	}
	if info.Size() > MaxFileSize {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", false, nil
	}
	return string(data), true, nil
}
