package tool

import (
	"context"
	"errors"
	"testing"

	"uigen/internal/vfs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	return NewEditor(vfs.New(), nil)
}

func run(t *testing.T, e *Editor, raw string) Result {
	t.Helper()
	return e.Run(context.Background(), []byte(raw))
}

func TestParse(t *testing.T) {
	t.Run("view with range", func(t *testing.T) {
		cmd, err := Parse([]byte(`{"command":"view","path":"/App.jsx","view_range":[2,-1]}`))
		require.NoError(t, err)
		assert.Equal(t, View{Path: "/App.jsx", Range: &vfs.Range{Start: 2, End: -1}}, cmd)
	})

	t.Run("insert keeps zero line", func(t *testing.T) {
		cmd, err := Parse([]byte(`{"command":"insert","path":"/a.js","insert_line":0,"new_str":""}`))
		require.NoError(t, err)
		assert.Equal(t, Insert{Path: "/a.js", Line: 0, NewStr: ""}, cmd)
	})

	t.Run("create with empty text", func(t *testing.T) {
		cmd, err := Parse([]byte(`{"command":"create","path":"/a.js","file_text":""}`))
		require.NoError(t, err)
		assert.Equal(t, Create{Path: "/a.js"}, cmd)
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		cmd, err := Parse([]byte(`{"command":"undo_edit","path":"/a.js","old_str":"x"}`))
		require.NoError(t, err)
		assert.Equal(t, UndoEdit{Path: "/a.js"}, cmd)
	})

	errCases := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "not json", raw: `nope`},
		{name: "missing command", raw: `{"path":"/a.js"}`, field: "command"},
		{name: "unknown command", raw: `{"command":"delete","path":"/a.js"}`, field: "command"},
		{name: "missing path", raw: `{"command":"view"}`, field: "path"},
		{name: "missing file_text", raw: `{"command":"create","path":"/a.js"}`, field: "file_text"},
		{name: "missing new_str", raw: `{"command":"str_replace","path":"/a.js","old_str":"a"}`, field: "new_str"},
		{name: "missing insert_line", raw: `{"command":"insert","path":"/a.js","new_str":"x"}`, field: "insert_line"},
		{name: "insert_line wrong type", raw: `{"command":"insert","path":"/a.js","insert_line":"2","new_str":"x"}`, field: "insert_line"},
		{name: "view_range wrong length", raw: `{"command":"view","path":"/a.js","view_range":[1,2,3]}`, field: "view_range"},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedArgs))

			var cmdErr *CommandError
			require.True(t, errors.As(err, &cmdErr))
			assert.Equal(t, tt.field, cmdErr.Field)
		})
	}
}

func TestRunCreateAndView(t *testing.T) {
	e := newTestEditor(t)

	res := run(t, e, `{"command":"create","path":"@/App.jsx","file_text":"line1\nline2\nline3"}`)
	assert.False(t, res.IsError)
	assert.Equal(t, "File created: /App.jsx", res.Text)
	assert.Equal(t, "/App.jsx", res.Path)
	assert.True(t, res.Mutated)

	res = run(t, e, `{"command":"view","path":"/App.jsx"}`)
	assert.False(t, res.IsError)
	assert.Equal(t, "1\tline1\n2\tline2\n3\tline3", res.Text)
	assert.False(t, res.Mutated)

	res = run(t, e, `{"command":"view","path":"/App.jsx","view_range":[2,2]}`)
	assert.Equal(t, "2\tline2", res.Text)

	res = run(t, e, `{"command":"create","path":"/App.jsx","file_text":"x"}`)
	assert.Equal(t, "File overwritten: /App.jsx", res.Text)
}

func TestRunEditSequence(t *testing.T) {
	e := newTestEditor(t)
	run(t, e, `{"command":"create","path":"/App.jsx","file_text":"line1\nline2\nline3"}`)

	res := run(t, e, `{"command":"str_replace","path":"/App.jsx","old_str":"line2","new_str":"LINE2"}`)
	assert.False(t, res.IsError)
	assert.Equal(t, "Replaced 1 occurrence of old_str in /App.jsx", res.Text)

	res = run(t, e, `{"command":"insert","path":"/App.jsx","insert_line":3,"new_str":"line4\nline5"}`)
	assert.False(t, res.IsError)
	assert.Equal(t, "Inserted 2 lines at line 3 in /App.jsx", res.Text)

	res = run(t, e, `{"command":"view","path":"/App.jsx"}`)
	assert.Equal(t, "1\tline1\n2\tLINE2\n3\tline3\n4\tline4\n5\tline5", res.Text)
}

func TestRunErrors(t *testing.T) {
	e := newTestEditor(t)
	run(t, e, `{"command":"create","path":"/App.jsx","file_text":"a\nb\na"}`)
	run(t, e, `{"command":"create","path":"/empty.js","file_text":""}`)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "undo",
			raw:  `{"command":"undo_edit","path":"/App.jsx"}`,
			want: UndoUnsupported,
		},
		{
			name: "undo on escaping path",
			raw:  `{"command":"undo_edit","path":"/../x"}`,
			want: UndoUnsupported,
		},
		{
			name: "view missing file",
			raw:  `{"command":"view","path":"/nope.js"}`,
			want: "Error: File not found: /nope.js. Use the create command to add it first.",
		},
		{
			name: "ambiguous replace",
			raw:  `{"command":"str_replace","path":"/App.jsx","old_str":"a","new_str":"z"}`,
			want: "Error: Found 2 occurrences of old_str in /App.jsx, but it must match exactly once. Include more surrounding lines in old_str to make it unique.",
		},
		{
			name: "no match",
			raw:  `{"command":"str_replace","path":"/App.jsx","old_str":"q","new_str":"z"}`,
			want: "Error: No match found for old_str in /App.jsx. old_str must match the file exactly, including whitespace and indentation. View the file and copy the exact text.",
		},
		{
			name: "insert out of range",
			raw:  `{"command":"insert","path":"/App.jsx","insert_line":7,"new_str":"z"}`,
			want: "Error: Invalid insert_line 7 for /App.jsx: it must be between 0 and 3 (the file has 3 lines).",
		},
		{
			name: "view range out of bounds",
			raw:  `{"command":"view","path":"/App.jsx","view_range":[5,6]}`,
			want: "Error: Invalid view_range [5, 6] for /App.jsx: the file has 3 lines. Start must be between 1 and 3, end must be at least start, or -1 to read to the end.",
		},
		{
			name: "view range on empty file",
			raw:  `{"command":"view","path":"/empty.js","view_range":[1,1]}`,
			want: "Error: Invalid view_range [1, 1] for /empty.js: the file is empty. View it without a range.",
		},
		{
			name: "escape",
			raw:  `{"command":"create","path":"/../etc/passwd","file_text":"x"}`,
			want: `Error: path "/../etc/passwd" escapes the project root. Paths must stay under /.`,
		},
		{
			name: "empty path",
			raw:  `{"command":"view","path":"  "}`,
			want: "Error: path must not be empty. Use an absolute path such as /App.jsx.",
		},
		{
			name: "create root",
			raw:  `{"command":"create","path":"/","file_text":"x"}`,
			want: "Error: / is the project root and cannot be written as a file. Use a file path such as /App.jsx.",
		},
		{
			name: "empty old_str",
			raw:  `{"command":"str_replace","path":"/App.jsx","old_str":"","new_str":"z"}`,
			want: "Error: old_str must not be empty for str_replace on /App.jsx. To add text without replacing, use insert.",
		},
		{
			name: "unknown command",
			raw:  `{"command":"rename","path":"/App.jsx"}`,
			want: `Error: invalid tool call: unknown command "rename"; expected one of view, create, str_replace, insert, undo_edit`,
		},
		{
			name: "missing argument",
			raw:  `{"command":"str_replace","path":"/App.jsx","old_str":"a"}`,
			want: `Error: invalid arguments for str_replace: missing required field "new_str"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, e, tt.raw)
			assert.True(t, res.IsError)
			assert.False(t, res.Mutated)
			assert.Equal(t, tt.want, res.Text)
		})
	}

	f, err := e.FileSystem().Get("/App.jsx")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\na", f.Content())
	assert.Equal(t, 2, e.FileSystem().Len())
}

func TestRunEmptyViews(t *testing.T) {
	e := newTestEditor(t)

	res := run(t, e, `{"command":"view","path":"/"}`)
	assert.False(t, res.IsError)
	assert.Equal(t, "Directory / is empty.", res.Text)

	run(t, e, `{"command":"create","path":"/components/Button.jsx","file_text":""}`)
	res = run(t, e, `{"command":"view","path":"/components/Button.jsx"}`)
	assert.Equal(t, "File /components/Button.jsx is empty.", res.Text)

	res = run(t, e, `{"command":"view","path":"/"}`)
	assert.Equal(t, "components/", res.Text)
}

func TestExecuteCancelled(t *testing.T) {
	e := newTestEditor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Execute(ctx, Create{Path: "/a.js", FileText: "x"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "create was not run")
	assert.Equal(t, 0, e.FileSystem().Len())
}

func TestSpec(t *testing.T) {
	def := Spec()
	assert.Equal(t, "str_replace_editor", def.Name)

	props, ok := def.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	for _, field := range []string{"command", "path", "file_text", "insert_line", "new_str", "old_str", "view_range"} {
		assert.Contains(t, props, field)
	}
}

func TestSummary(t *testing.T) {
	fs := vfs.New()
	assert.Equal(t, "(no files)", Summary(fs))

	_, err := fs.Put("/b.js", "")
	require.NoError(t, err)
	_, err = fs.Put("/a/c.js", "")
	require.NoError(t, err)
	assert.Equal(t, "/a/c.js\n/b.js", Summary(fs))
}
