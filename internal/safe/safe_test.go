package safe

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSafe(t *testing.T) *Safe {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(db, DefaultOptions())
	require.NoError(t, err)
	return s
}

func metaOf(s *Safe, hash string) (ContentMeta, error) {
	var meta ContentMeta
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		meta, err = getMeta(txn, hash)
		return err
	})
	return meta, err
}

func TestSafeStoreAndGet(t *testing.T) {
	s := setupSafe(t)

	content := []byte("export default function App() {}\n")
	hash, err := s.Store("/App.jsx", content)
	require.NoError(t, err)
	assert.Equal(t, HashContent(content), hash)

	got, err := s.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = metaOf(s, hash)
	require.NoError(t, err)

	_, err = s.Get("not-a-hash")
	assert.True(t, errors.Is(err, ErrInvalidHash))
}

func TestSafeCompressesLargeText(t *testing.T) {
	s := setupSafe(t)

	content := []byte(strings.Repeat("<div className=\"p-4\">hello</div>\n", 200))
	hash, err := s.Store("/components/List.jsx", content)
	require.NoError(t, err)

	meta, err := metaOf(s, hash)
	require.NoError(t, err)
	assert.True(t, meta.Compressed)
	assert.Less(t, meta.StoredSize, meta.Size)

	// bypass the cache so the stored form is decoded
	s.cache.Purge()
	got, err := s.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestSafeSkipsSmallAndBinary(t *testing.T) {
	s := setupSafe(t)

	hash, err := s.Store("/a.js", []byte("x"))
	require.NoError(t, err)
	meta, err := metaOf(s, hash)
	require.NoError(t, err)
	assert.False(t, meta.Compressed)

	big := []byte(strings.Repeat("a", 4096))
	hash, err = s.Store("/logo.png", big)
	require.NoError(t, err)
	meta, err = metaOf(s, hash)
	require.NoError(t, err)
	assert.False(t, meta.Compressed)
}

func TestSafeRefCounting(t *testing.T) {
	s := setupSafe(t)

	content := []byte("shared")
	h1, err := s.Store("/a.js", content)
	require.NoError(t, err)
	h2, err := s.Store("/b.js", content)
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	meta, err := metaOf(s, h1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), meta.RefCount)

	require.NoError(t, s.Release(h1))
	_, err = s.Get(h1)
	require.NoError(t, err)

	require.NoError(t, s.Release(h1))
	_, err = metaOf(s, h1)
	assert.True(t, errors.Is(err, ErrContentNotFound))
	_, err = s.Get(h1)
	assert.True(t, errors.Is(err, ErrContentNotFound))

	assert.True(t, errors.Is(s.Release(h1), ErrContentNotFound))
}

func TestSafeStoreBatch(t *testing.T) {
	s := setupSafe(t)

	hashes, err := s.StoreBatch(map[string][]byte{
		"/App.jsx":   []byte("app"),
		"/index.css": []byte(""),
	})
	require.NoError(t, err)
	require.Len(t, hashes, 2)

	got, err := s.Get(hashes["/index.css"])
	require.NoError(t, err)
	assert.Empty(t, got)

	// storing identical content again shares the blob
	_, err = s.StoreBatch(map[string][]byte{"/App.jsx": []byte("app")})
	require.NoError(t, err)
	meta, err := metaOf(s, hashes["/App.jsx"])
	require.NoError(t, err)
	assert.Equal(t, uint32(2), meta.RefCount)
}
