// internal/diff/diff.go
package diff

import (
	"bytes"
	"fmt"
	"strings"
)

// Line is a single line of a hunk.
type Line struct {
	Type    LineType
	Content string
	OldNum  int
	NewNum  int
}

// LineType indicates whether a line was added, removed, or is context
type LineType int

const (
	Context LineType = iota
	Addition
	Deletion
)

// DiffResult contains the complete diff information
type DiffResult struct {
	OldName string
	NewName string
	Hunks   []Hunk
	Stats   struct {
		Additions int
		Deletions int
		Changes   int
	}
}

// Hunk represents a continuous section of changes
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// DefaultContext is the number of unchanged lines kept around each change.
const DefaultContext = 3

// Engine provides diffing capabilities
type Engine struct {
	contextLines int
}

// NewEngine creates a new diff engine with specified context lines
func NewEngine(contextLines int) *Engine {
	if contextLines < 0 {
		contextLines = 0
	}
	return &Engine{
		contextLines: contextLines,
	}
}

// Empty reports whether the two inputs were identical.
func (r *DiffResult) Empty() bool {
	return len(r.Hunks) == 0
}

// Diff compares two texts line by line. A single trailing newline is
// ignored on both sides.
func (e *Engine) Diff(oldContent, newContent string) *DiffResult {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	result := &DiffResult{}
	script := e.editScript(oldLines, newLines)
	result.Hunks = e.group(script)

	for _, l := range script {
		switch l.Type {
		case Addition:
			result.Stats.Additions++
		case Deletion:
			result.Stats.Deletions++
		}
	}
	result.Stats.Changes = result.Stats.Additions + result.Stats.Deletions
	return result
}

// DiffFiles is Diff with names for the unified header.
func (e *Engine) DiffFiles(name, oldContent, newContent string) *DiffResult {
	r := e.Diff(oldContent, newContent)
	r.OldName = "a" + name
	r.NewName = "b" + name
	return r
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// MaxTableCells bounds the LCS table built for the changed middle of two
// inputs. Larger middles are reported as one block of deletions followed by
// one block of additions.
const MaxTableCells = 1 << 21

// lcs builds the suffix table: m[i][j] is the LCS length of a[i:] and b[j:].
func lcs(a, b []string) [][]int32 {
	m := make([][]int32, len(a)+1)
	for i := range m {
		m[i] = make([]int32, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				m[i][j] = m[i+1][j+1] + 1
			} else {
				m[i][j] = max(m[i+1][j], m[i][j+1])
			}
		}
	}
	return m
}

// editScript emits the shared prefix and suffix as context and diffs only
// what lies between them. Replaced blocks read as "-" then "+".
func (e *Engine) editScript(a, b []string) []Line {
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	script := make([]Line, 0, len(a)+len(b))
	for i := 0; i < prefix; i++ {
		script = append(script, Line{Type: Context, Content: a[i], OldNum: i + 1, NewNum: i + 1})
	}
	script = middle(script, a[prefix:len(a)-suffix], b[prefix:len(b)-suffix], prefix, prefix)
	for k := suffix; k > 0; k-- {
		i, j := len(a)-k, len(b)-k
		script = append(script, Line{Type: Context, Content: a[i], OldNum: i + 1, NewNum: j + 1})
	}
	return script
}

// middle appends the edit script of a against b. offA and offB are the
// number of lines of each side that precede them.
func middle(script []Line, a, b []string, offA, offB int) []Line {
	if len(a) > 0 && len(b) > 0 && len(a)*len(b) > MaxTableCells {
		for i, l := range a {
			script = append(script, Line{Type: Deletion, Content: l, OldNum: offA + i + 1})
		}
		for j, l := range b {
			script = append(script, Line{Type: Addition, Content: l, NewNum: offB + j + 1})
		}
		return script
	}

	m := lcs(a, b)
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			script = append(script, Line{Type: Context, Content: a[i], OldNum: offA + i + 1, NewNum: offB + j + 1})
			i++
			j++
		case i < len(a) && (j == len(b) || m[i+1][j] >= m[i][j+1]):
			script = append(script, Line{Type: Deletion, Content: a[i], OldNum: offA + i + 1})
			i++
		default:
			script = append(script, Line{Type: Addition, Content: b[j], NewNum: offB + j + 1})
			j++
		}
	}
	return script
}

// group cuts the edit script into hunks, keeping contextLines of
// unchanged lines around each change and merging hunks that touch.
func (e *Engine) group(script []Line) []Hunk {
	var hunks []Hunk

	for idx := 0; idx < len(script); {
		if script[idx].Type == Context {
			idx++
			continue
		}

		start := max(0, idx-e.contextLines)
		end := idx
		for end < len(script) {
			if script[end].Type != Context {
				end++
				continue
			}
			run := end
			for run < len(script) && script[run].Type == Context {
				run++
			}
			if run == len(script) || run-end > 2*e.contextLines {
				end = min(len(script), end+e.contextLines)
				break
			}
			end = run
		}

		oldBefore, newBefore := countSides(script[:start])
		hunks = append(hunks, newHunk(script[start:end], oldBefore, newBefore))
		idx = end
	}
	return hunks
}

// newHunk sizes a hunk. oldBefore and newBefore count the lines of each
// side that precede it; an empty side reports the line before the change.
func newHunk(lines []Line, oldBefore, newBefore int) Hunk {
	h := Hunk{Lines: append([]Line(nil), lines...)}
	for _, l := range lines {
		switch l.Type {
		case Context:
			h.OldLines++
			h.NewLines++
		case Deletion:
			h.OldLines++
		case Addition:
			h.NewLines++
		}
	}
	h.OldStart, h.NewStart = oldBefore, newBefore
	if h.OldLines > 0 {
		h.OldStart++
	}
	if h.NewLines > 0 {
		h.NewStart++
	}
	return h
}

func countSides(lines []Line) (int, int) {
	oldN, newN := 0, 0
	for _, l := range lines {
		if l.Type != Addition {
			oldN++
		}
		if l.Type != Deletion {
			newN++
		}
	}
	return oldN, newN
}

// Format renders the diff in unified format.
func (r *DiffResult) Format() string {
	var buf bytes.Buffer

	if r.OldName != "" && len(r.Hunks) > 0 {
		fmt.Fprintf(&buf, "--- %s\n+++ %s\n", r.OldName, r.NewName)
	}
	for _, hunk := range r.Hunks {
		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n",
			hunk.OldStart, hunk.OldLines,
			hunk.NewStart, hunk.NewLines)

		for _, line := range hunk.Lines {
			switch line.Type {
			case Addition:
				buf.WriteByte('+')
			case Deletion:
				buf.WriteByte('-')
			case Context:
				buf.WriteByte(' ')
			}
			buf.WriteString(line.Content)
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}
