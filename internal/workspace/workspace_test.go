package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestShouldIgnore(t *testing.T) {
	assert.False(t, ShouldIgnore("App.jsx"))
	assert.False(t, ShouldIgnore("components/Button.jsx"))
	assert.True(t, ShouldIgnore("node_modules/react/index.js"))
	assert.True(t, ShouldIgnore(".git"))
	assert.True(t, ShouldIgnore("src/.env"))
}

func TestImport(t *testing.T) {
	root := t.TempDir()
	write(t, root, "App.jsx", "export default App")
	write(t, root, "components/Button.jsx", "button")
	write(t, root, "node_modules/react/index.js", "ignored")
	write(t, root, ".env", "SECRET=1")
	write(t, root, "logo.png", "\x89PNG\x00\x01")

	files, err := Import(root)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"/App.jsx":               "export default App",
		"/components/Button.jsx": "button",
	}, files)
}

func TestExport(t *testing.T) {
	root := t.TempDir()
	written, err := Export(root, map[string]string{
		"/App.jsx":              "app",
		"@/components/Card.jsx": "card",
	})
	require.NoError(t, err)
	assert.Len(t, written, 2)

	data, err := os.ReadFile(filepath.Join(root, "components", "Card.jsx"))
	require.NoError(t, err)
	assert.Equal(t, "card", string(data))

	_, err = Export(root, map[string]string{"/../escape.js": "x"})
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape.js"))
	assert.True(t, os.IsNotExist(err))
}

func TestWatcher(t *testing.T) {
	root := t.TempDir()

	var (
		mu   sync.Mutex
		seen = map[string]string{}
	)
	sink := func(_ context.Context, path, content string) error {
		mu.Lock()
		defer mu.Unlock()
		seen[path] = content
		return nil
	}

	w, err := NewWatcher(root, sink, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	write(t, root, "App.jsx", "hello")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["/App.jsx"] == "hello"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Mkdir(filepath.Join(root, "components"), 0o755))
	// give the watcher a moment to pick up the new directory
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(root, "components", "Nav.jsx"), []byte("nav"), 0o644)
		mu.Lock()
		defer mu.Unlock()
		return seen["/components/Nav.jsx"] == "nav"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
