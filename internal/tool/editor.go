package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"uigen/internal/logging"
	"uigen/internal/vfs"

	"go.uber.org/zap"
)

// UndoUnsupported is returned verbatim for every undo_edit call.
const UndoUnsupported = "Error: undo_edit command is not supported in this version. Use str_replace to revert changes."

// Result is the text handed back to the model for one tool call.
type Result struct {
	Text    string `json:"result"`
	IsError bool   `json:"is_error"`
	// Command is empty when the call could not be decoded.
	Command string `json:"command,omitempty"`
	// Path is the normalized target, when one was resolved.
	Path    string `json:"path,omitempty"`
	Mutated bool   `json:"-"`
}

// Editor executes editor commands against one file system.
type Editor struct {
	fs     *vfs.FileSystem
	logger *logging.Logger
}

func NewEditor(fs *vfs.FileSystem, logger *logging.Logger) *Editor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Editor{fs: fs, logger: logger}
}

// FileSystem returns the store the editor operates on.
func (e *Editor) FileSystem() *vfs.FileSystem {
	return e.fs
}

// Run decodes a raw tool call and executes it. Decoding failures are
// reported as an error result, never as a Go error.
func (e *Editor) Run(ctx context.Context, raw []byte) Result {
	cmd, err := Parse(raw)
	if err != nil {
		e.logger.WithRequestID(ctx).Debug("rejected tool call", zap.Error(err))
		return Result{Text: renderError(nil, "", err), IsError: true}
	}
	return e.Execute(ctx, cmd)
}

// Execute runs one command. Every outcome, including failures, is a Result.
func (e *Editor) Execute(ctx context.Context, cmd Command) Result {
	log := e.logger.WithRequestID(ctx)

	if err := ctx.Err(); err != nil {
		return Result{
			Text:    fmt.Sprintf("Error: %s was not run: %v", cmd.Name(), err),
			IsError: true,
			Command: cmd.Name(),
		}
	}

	res := Result{Command: cmd.Name()}
	path, text, err := e.Dispatch(cmd)
	res.Path = path
	if err != nil {
		res.Text = renderError(cmd, path, err)
		res.IsError = true
		log.Debug("command failed",
			zap.String("command", cmd.Name()),
			zap.String("path", cmd.Target()),
			zap.Error(err),
		)
		return res
	}

	res.Text = text
	res.Mutated = cmd.Name() != CommandView
	log.Debug("command executed",
		zap.String("command", cmd.Name()),
		zap.String("path", path),
	)
	return res
}

// Dispatch performs cmd and returns the normalized path it touched along with
// the success text.
func (e *Editor) Dispatch(cmd Command) (string, string, error) {
	if c, ok := cmd.(UndoEdit); ok {
		return c.Path, "", &CommandError{Command: CommandUndoEdit, Field: "command", Err: ErrUnsupported, Detail: "undo is not available"}
	}

	path, err := vfs.Normalize(cmd.Target())
	if err != nil {
		return "", "", err
	}

	switch c := cmd.(type) {
	case View:
		out, err := e.fs.View(path, c.Range)
		if err != nil {
			return path, "", err
		}
		if out == "" {
			if e.fs.Exists(path) {
				return path, fmt.Sprintf("File %s is empty.", path), nil
			}
			return path, fmt.Sprintf("Directory %s is empty.", path), nil
		}
		return path, out, nil

	case Create:
		overwritten, err := e.fs.Create(path, c.FileText)
		if err != nil {
			return path, "", err
		}
		if overwritten {
			return path, fmt.Sprintf("File overwritten: %s", path), nil
		}
		return path, fmt.Sprintf("File created: %s", path), nil

	case StrReplace:
		if err := e.fs.Replace(path, c.OldStr, c.NewStr); err != nil {
			return path, "", err
		}
		return path, fmt.Sprintf("Replaced 1 occurrence of old_str in %s", path), nil

	case Insert:
		n, err := e.fs.Insert(path, c.Line, c.NewStr)
		if err != nil {
			return path, "", err
		}
		return path, fmt.Sprintf("Inserted %d %s at line %d in %s", n, plural(n, "line"), c.Line, path), nil

	default:
		return path, "", &CommandError{Command: cmd.Name(), Err: ErrUnsupported, Detail: "no handler"}
	}
}

// renderError turns a failure into guidance the model can act on. path is
// the normalized target when one was resolved.
func renderError(cmd Command, path string, err error) string {
	var (
		cmdErr  *CommandError
		pathErr *vfs.PathError
		fileErr *vfs.FileError
	)

	if errors.As(err, &cmdErr) {
		switch {
		case errors.Is(err, ErrUnsupported) && cmdErr.Command == CommandUndoEdit:
			return UndoUnsupported
		case cmdErr.Command == "":
			return fmt.Sprintf("Error: invalid tool call: %s", cmdErr.Detail)
		default:
			return fmt.Sprintf("Error: invalid arguments for %s: %s", cmdErr.Command, cmdErr.Detail)
		}
	}

	if errors.As(err, &pathErr) {
		switch {
		case errors.Is(err, vfs.ErrEmptyPath):
			return "Error: path must not be empty. Use an absolute path such as /App.jsx."
		case errors.Is(err, vfs.ErrPathEscape):
			return fmt.Sprintf("Error: path %q escapes the project root. Paths must stay under /.", pathErr.Path)
		case errors.Is(err, vfs.ErrIsDirectory) && pathErr.Path == vfs.Root:
			return "Error: / is the project root and cannot be written as a file. Use a file path such as /App.jsx."
		case errors.Is(err, vfs.ErrIsDirectory):
			return fmt.Sprintf("Error: %s is a directory. Choose a file path inside it, such as %s/index.jsx.", pathErr.Path, pathErr.Path)
		case errors.Is(err, vfs.ErrParentIsFile):
			return fmt.Sprintf("Error: cannot create %s: %v. A file cannot also be a directory.", pathErr.Path, pathErr.Err)
		}
		return fmt.Sprintf("Error: %v", err)
	}

	if errors.As(err, &fileErr) {
		switch {
		case errors.Is(err, vfs.ErrNotFound):
			return fmt.Sprintf("Error: File not found: %s. Use the create command to add it first.", fileErr.Path)

		case errors.Is(err, vfs.ErrInvalidRange) && fileErr.Op == CommandInsert:
			return fmt.Sprintf("Error: Invalid insert_line %d for %s: it must be between 0 and %d (the file has %d %s).",
				fileErr.Line, fileErr.Path, fileErr.LineCount, fileErr.LineCount, plural(fileErr.LineCount, "line"))

		case errors.Is(err, vfs.ErrInvalidRange):
			if fileErr.LineCount == 0 {
				return fmt.Sprintf("Error: Invalid view_range [%d, %d] for %s: the file is empty. View it without a range.",
					fileErr.Start, fileErr.End, fileErr.Path)
			}
			return fmt.Sprintf("Error: Invalid view_range [%d, %d] for %s: the file has %d %s. Start must be between 1 and %d, end must be at least start, or -1 to read to the end.",
				fileErr.Start, fileErr.End, fileErr.Path, fileErr.LineCount, plural(fileErr.LineCount, "line"), fileErr.LineCount)

		case errors.Is(err, vfs.ErrNoMatch):
			return fmt.Sprintf("Error: No match found for old_str in %s. old_str must match the file exactly, including whitespace and indentation. View the file and copy the exact text.",
				fileErr.Path)

		case errors.Is(err, vfs.ErrAmbiguousMatch):
			return fmt.Sprintf("Error: Found %d occurrences of old_str in %s, but it must match exactly once. Include more surrounding lines in old_str to make it unique.",
				fileErr.Matches, fileErr.Path)

		case errors.Is(err, vfs.ErrInvalidArgument):
			return fmt.Sprintf("Error: old_str must not be empty for str_replace on %s. To add text without replacing, use insert.", fileErr.Path)
		}
	}

	name := "command"
	if cmd != nil {
		name = cmd.Name()
	}
	if path != "" {
		return fmt.Sprintf("Error: %s on %s failed: %v", name, path, err)
	}
	return fmt.Sprintf("Error: %s failed: %v", name, err)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Summary renders a short overview of the store for prompts and logs.
func Summary(fs *vfs.FileSystem) string {
	paths, err := fs.List(vfs.Root)
	if err != nil || len(paths) == 0 {
		return "(no files)"
	}
	return strings.Join(paths, "\n")
}
