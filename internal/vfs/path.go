package vfs

import (
	"strings"
)

// Root is the virtual root directory. It is a valid path but never a file.
const Root = "/"

// aliasPrefix is the import alias generated code uses for the project root.
const aliasPrefix = "@/"

// Normalize canonicalizes a raw path from the command layer.
//
// The result always starts with "/", has no empty, "." or ".." segments and
// no trailing slash. A "@/" prefix is treated as the root. Paths that are
// blank or climb above the root are rejected with a *PathError.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &PathError{Path: raw, Err: ErrEmptyPath}
	}

	if strings.HasPrefix(trimmed, aliasPrefix) {
		trimmed = Root + strings.TrimPrefix(trimmed, aliasPrefix)
	}

	segments := make([]string, 0, strings.Count(trimmed, "/")+1)
	for _, seg := range strings.Split(trimmed, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(segments) == 0 {
				return "", &PathError{Path: raw, Err: ErrPathEscape}
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	return Root + strings.Join(segments, "/"), nil
}

// Parent returns the parent directory of a normalized path. The parent of
// the root is the root.
func Parent(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return Root
	}
	return p[:idx]
}

// dirPrefix returns the key prefix shared by everything below dir.
func dirPrefix(dir string) string {
	if dir == Root {
		return Root
	}
	return dir + "/"
}

// ancestors lists every proper ancestor directory of p, nearest first,
// excluding the root.
func ancestors(p string) []string {
	var out []string
	for dir := Parent(p); dir != Root; dir = Parent(dir) {
		out = append(out, dir)
	}
	return out
}
