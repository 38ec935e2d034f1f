package vfs

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPath    = errors.New("path is empty")
	ErrPathEscape   = errors.New("path escapes the root directory")
	ErrIsDirectory  = errors.New("path is a directory")
	ErrParentIsFile = errors.New("parent path is a file")

	ErrNotFound        = errors.New("file not found")
	ErrInvalidRange    = errors.New("invalid line range")
	ErrNoMatch         = errors.New("old_str not found in file")
	ErrAmbiguousMatch  = errors.New("old_str matches more than once")
	ErrInvalidArgument = errors.New("invalid argument")
)

// PathError records a path that could not be normalized or used.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// FileError records a failed operation on a stored file. The numeric fields
// carry whatever context the operation had so callers can phrase guidance
// without re-reading the store.
type FileError struct {
	Op        string
	Path      string
	Err       error
	Matches   int // occurrences of old_str, for replace
	LineCount int // current number of lines in the file
	Start     int // requested view range start
	End       int // requested view range end
	Line      int // requested insert line
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
