package session

import (
	"context"
	"net/http"
	"testing"

	"uigen/internal/diff"
	"uigen/internal/errors"
	"uigen/internal/project/storage"
	"uigen/internal/safe"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T, max int) *Manager {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sf, err := safe.New(db, safe.DefaultOptions())
	require.NoError(t, err)

	m, err := NewManager(max, storage.NewStore(db, sf), nil)
	require.NoError(t, err)
	return m
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t, 4)

	s, err := m.Create(ctx, CreateOptions{Files: map[string]string{"/App.jsx": "hello"}})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, []string{"/App.jsx"}, got.Paths())

	require.NoError(t, m.Close(s.ID))
	_, err = m.Get(s.ID)
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(m.Close(s.ID)))
}

func TestManagerEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t, 2)

	first, err := m.Create(ctx, CreateOptions{})
	require.NoError(t, err)
	_, err = m.Create(ctx, CreateOptions{})
	require.NoError(t, err)
	_, err = m.Create(ctx, CreateOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	_, err = m.Get(first.ID)
	assert.Error(t, err)
}

func TestManagerRejectsBadSeed(t *testing.T) {
	m := setupManager(t, 2)
	_, err := m.Create(context.Background(), CreateOptions{Files: map[string]string{"/../x": ""}})
	assert.Equal(t, http.StatusBadRequest, errors.StatusCode(err))
	assert.Equal(t, 0, m.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t, 4)

	a, err := m.Create(ctx, CreateOptions{})
	require.NoError(t, err)
	b, err := m.Create(ctx, CreateOptions{})
	require.NoError(t, err)

	res := a.Run(ctx, []byte(`{"command":"create","path":"/App.jsx","file_text":"a"}`))
	require.False(t, res.IsError)

	res = b.Run(ctx, []byte(`{"command":"view","path":"/App.jsx"}`))
	assert.True(t, res.IsError)
}

func TestSaveAndReload(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t, 4)

	s, err := m.Create(ctx, CreateOptions{})
	require.NoError(t, err)
	s.Run(ctx, []byte(`{"command":"create","path":"/App.jsx","file_text":"v1"}`))

	p, err := m.Save(ctx, s.ID, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultProjectName, p.Name)
	assert.Equal(t, 1, p.Revision)
	assert.Equal(t, p.ID, s.ProjectID())

	s.Run(ctx, []byte(`{"command":"str_replace","path":"/App.jsx","old_str":"v1","new_str":"v2"}`))
	p, err = m.Save(ctx, s.ID, "Landing page")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Revision)

	reloaded, err := m.Create(ctx, CreateOptions{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/App.jsx": "v2"}, reloaded.Files())
	assert.Equal(t, "Landing page", reloaded.Name())

	_, err = m.Create(ctx, CreateOptions{ProjectID: "missing"})
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
}

func TestSaveWithoutStorage(t *testing.T) {
	m, err := NewManager(2, nil, nil)
	require.NoError(t, err)
	s, err := m.Create(context.Background(), CreateOptions{})
	require.NoError(t, err)

	_, err = m.Save(context.Background(), s.ID, "x")
	assert.Equal(t, http.StatusConflict, errors.StatusCode(err))
}

func TestRunWithDiff(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t, 2)
	s, err := m.Create(ctx, CreateOptions{Files: map[string]string{"/App.jsx": "a\nb\nc"}})
	require.NoError(t, err)

	engine := diff.NewEngine(1)
	res, d := s.RunWithDiff(ctx, []byte(`{"command":"str_replace","path":"@/App.jsx","old_str":"b","new_str":"B"}`), engine)
	require.False(t, res.IsError)
	assert.Equal(t, "--- a/App.jsx\n+++ b/App.jsx\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n", d)

	res, d = s.RunWithDiff(ctx, []byte(`{"command":"view","path":"/App.jsx"}`), engine)
	assert.False(t, res.IsError)
	assert.Empty(t, d)
}
