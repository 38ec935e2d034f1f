package diff

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffIdentical(t *testing.T) {
	r := NewEngine(3).Diff("a\nb\n", "a\nb")
	assert.True(t, r.Empty())
	assert.Equal(t, 0, r.Stats.Changes)
	assert.Equal(t, "", r.Format())
}

func TestDiffReplaceLine(t *testing.T) {
	r := NewEngine(1).DiffFiles("/App.jsx", "a\nb\nc", "a\nB\nc")
	require.Len(t, r.Hunks, 1)
	assert.Equal(t, 1, r.Stats.Additions)
	assert.Equal(t, 1, r.Stats.Deletions)
	assert.Equal(t, "--- a/App.jsx\n+++ b/App.jsx\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n", r.Format())
}

func TestDiffSeparateHunks(t *testing.T) {
	old := "1\n2\n3\n4\n5\n6\n7\n8\n9"
	updated := "one\n2\n3\n4\n5\n6\n7\n8\nnine"

	r := NewEngine(1).Diff(old, updated)
	require.Len(t, r.Hunks, 2)

	assert.Equal(t, 1, r.Hunks[0].OldStart)
	assert.Equal(t, 2, r.Hunks[0].OldLines)
	assert.Equal(t, 8, r.Hunks[1].OldStart)
	assert.Equal(t, 2, r.Hunks[1].OldLines)
	assert.Equal(t, "@@ -1,2 +1,2 @@\n-1\n+one\n 2\n@@ -8,2 +8,2 @@\n 8\n-9\n+nine\n", r.Format())
}

func TestDiffMergesNearbyChanges(t *testing.T) {
	r := NewEngine(2).Diff("a\nb\nc\nd\ne", "A\nb\nc\nD\ne")
	require.Len(t, r.Hunks, 1)
	assert.Equal(t, 5, r.Hunks[0].OldLines)
}

func TestDiffFromEmpty(t *testing.T) {
	r := NewEngine(3).Diff("", "x\ny")
	require.Len(t, r.Hunks, 1)
	assert.Equal(t, 0, r.Hunks[0].OldStart)
	assert.Equal(t, 0, r.Hunks[0].OldLines)
	assert.Equal(t, 1, r.Hunks[0].NewStart)
	assert.Equal(t, 2, r.Hunks[0].NewLines)
	assert.Equal(t, "@@ -0,0 +1,2 @@\n+x\n+y\n", r.Format())
}

func TestDiffInsertion(t *testing.T) {
	r := NewEngine(0).Diff("a\nc", "a\nb\nc")
	require.Len(t, r.Hunks, 1)
	assert.Equal(t, "@@ -1,0 +2,1 @@\n+b\n", r.Format())
}

func numbered(prefix string, n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("%s %d", prefix, i)
	}
	return strings.Join(lines, "\n")
}

func TestDiffLargeRewriteSkipsTable(t *testing.T) {
	const n = 40000
	r := NewEngine(3).DiffFiles("/big.js", numbered("old", n), numbered("new", n))

	require.Len(t, r.Hunks, 1)
	assert.Equal(t, n, r.Stats.Deletions)
	assert.Equal(t, n, r.Stats.Additions)
	assert.Equal(t, 1, r.Hunks[0].OldStart)
	assert.Equal(t, n, r.Hunks[0].OldLines)
	assert.Equal(t, n, r.Hunks[0].NewLines)
	assert.Equal(t, Line{Type: Deletion, Content: "old 0", OldNum: 1}, r.Hunks[0].Lines[0])
	assert.Equal(t, Line{Type: Addition, Content: "new 0", NewNum: 1}, r.Hunks[0].Lines[n])
}

func TestDiffLargeFileSmallEdit(t *testing.T) {
	const n = 50000
	old := numbered("line", n)
	updated := strings.Replace(old, "line 25000\n", "LINE 25000\n", 1)

	r := NewEngine(1).Diff(old, updated)
	require.Len(t, r.Hunks, 1)
	assert.Equal(t, "@@ -25000,3 +25000,3 @@\n line 24999\n-line 25000\n+LINE 25000\n line 25001\n", r.Format())
}

func TestDiffMiddleAfterSharedEnds(t *testing.T) {
	r := NewEngine(0).Diff("a\nb\nc\nz", "a\nx\nc\ny\nz")
	assert.Equal(t, "@@ -2,1 +2,1 @@\n-b\n+x\n@@ -3,0 +4,1 @@\n+y\n", r.Format())
}
