package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"uigen/internal/validation"
	"uigen/internal/vfs"
)

// Command names accepted by the str_replace_editor tool.
const (
	CommandView       = "view"
	CommandCreate     = "create"
	CommandStrReplace = "str_replace"
	CommandInsert     = "insert"
	CommandUndoEdit   = "undo_edit"
)

// CommandNames lists every accepted command in contract order.
var CommandNames = []string{CommandView, CommandCreate, CommandStrReplace, CommandInsert, CommandUndoEdit}

var (
	ErrMalformedArgs = errors.New("malformed arguments")
	ErrUnsupported   = errors.New("unsupported command")
)

// CommandError reports a tool call that was rejected before reaching the
// file system.
type CommandError struct {
	Command string
	Field   string
	Err     error
	Detail  string
}

func (e *CommandError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Detail)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Command is one decoded editor command. The set of implementations is
// closed; Dispatch switches over all of them.
type Command interface {
	Name() string
	Target() string
	command()
}

type View struct {
	Path  string
	Range *vfs.Range
}

type Create struct {
	Path     string
	FileText string
}

type StrReplace struct {
	Path   string
	OldStr string
	NewStr string
}

type Insert struct {
	Path   string
	Line   int
	NewStr string
}

type UndoEdit struct {
	Path string
}

func (View) Name() string       { return CommandView }
func (Create) Name() string     { return CommandCreate }
func (StrReplace) Name() string { return CommandStrReplace }
func (Insert) Name() string     { return CommandInsert }
func (UndoEdit) Name() string   { return CommandUndoEdit }

func (c View) Target() string       { return c.Path }
func (c Create) Target() string     { return c.Path }
func (c StrReplace) Target() string { return c.Path }
func (c Insert) Target() string     { return c.Path }
func (c UndoEdit) Target() string   { return c.Path }

func (View) command()       {}
func (Create) command()     {}
func (StrReplace) command() {}
func (Insert) command()     {}
func (UndoEdit) command()   {}

// Wire shapes. Required fields are pointers so an explicit empty string or
// zero can be told apart from a missing field.
type envelope struct {
	Command string `json:"command"`
}

type viewArgs struct {
	Path      *string `json:"path" validate:"required"`
	ViewRange []int   `json:"view_range" validate:"omitempty,len=2"`
}

type createArgs struct {
	Path     *string `json:"path" validate:"required"`
	FileText *string `json:"file_text" validate:"required"`
}

type strReplaceArgs struct {
	Path   *string `json:"path" validate:"required"`
	OldStr *string `json:"old_str" validate:"required"`
	NewStr *string `json:"new_str" validate:"required"`
}

type insertArgs struct {
	Path       *string `json:"path" validate:"required"`
	InsertLine *int    `json:"insert_line" validate:"required"`
	NewStr     *string `json:"new_str" validate:"required"`
}

type undoEditArgs struct {
	Path *string `json:"path" validate:"required"`
}

// Parse decodes and validates a raw tool call. Wrong types and missing
// fields come back as a *CommandError naming the field.
func Parse(raw []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformed("", err)
	}

	switch env.Command {
	case CommandView:
		var a viewArgs
		if err := decodeArgs(raw, env.Command, &a); err != nil {
			return nil, err
		}
		cmd := View{Path: *a.Path}
		if len(a.ViewRange) == 2 {
			cmd.Range = &vfs.Range{Start: a.ViewRange[0], End: a.ViewRange[1]}
		}
		return cmd, nil

	case CommandCreate:
		var a createArgs
		if err := decodeArgs(raw, env.Command, &a); err != nil {
			return nil, err
		}
		return Create{Path: *a.Path, FileText: *a.FileText}, nil

	case CommandStrReplace:
		var a strReplaceArgs
		if err := decodeArgs(raw, env.Command, &a); err != nil {
			return nil, err
		}
		return StrReplace{Path: *a.Path, OldStr: *a.OldStr, NewStr: *a.NewStr}, nil

	case CommandInsert:
		var a insertArgs
		if err := decodeArgs(raw, env.Command, &a); err != nil {
			return nil, err
		}
		return Insert{Path: *a.Path, Line: *a.InsertLine, NewStr: *a.NewStr}, nil

	case CommandUndoEdit:
		var a undoEditArgs
		if err := decodeArgs(raw, env.Command, &a); err != nil {
			return nil, err
		}
		return UndoEdit{Path: *a.Path}, nil

	case "":
		return nil, &CommandError{Field: "command", Err: ErrMalformedArgs, Detail: `missing required field "command"`}

	default:
		return nil, &CommandError{
			Field:  "command",
			Err:    ErrMalformedArgs,
			Detail: fmt.Sprintf("unknown command %q; expected one of %s", env.Command, strings.Join(CommandNames, ", ")),
		}
	}
}

func decodeArgs(raw []byte, command string, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return malformed(command, err)
	}
	if err := validation.Struct(v); err != nil {
		cmdErr := &CommandError{Command: command, Err: ErrMalformedArgs, Detail: err.Error()}
		if fields := validation.Fields(err); len(fields) > 0 {
			cmdErr.Field = fields[0].Field
		}
		return cmdErr
	}
	return nil
}

func malformed(command string, err error) *CommandError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &CommandError{
			Command: command,
			Field:   typeErr.Field,
			Err:     ErrMalformedArgs,
			Detail:  fmt.Sprintf("field %q must be %s, got %s", typeErr.Field, describeType(typeErr.Type.String()), typeErr.Value),
		}
	}
	return &CommandError{Command: command, Err: ErrMalformedArgs, Detail: "arguments must be a JSON object"}
}

func describeType(goType string) string {
	switch goType {
	case "int":
		return "an integer"
	case "string":
		return "a string"
	case "[]int":
		return "an array of two integers"
	default:
		return goType
	}
}
