// internal/safe/safe.go
package safe

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrInvalidHash     = errors.New("invalid content hash")
	ErrHashMismatch    = errors.New("content hash mismatch")
)

// ContentMeta stores metadata about stored content
type ContentMeta struct {
	Hash       string    `json:"hash"`
	Size       int64     `json:"size"`
	StoredSize int64     `json:"stored_size"`
	RefCount   uint32    `json:"ref_count"`
	Compressed bool      `json:"compressed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Safe is a deduplicated, reference-counted blob store kept inside badger.
// Identical file contents across projects share one blob.
type Safe struct {
	db    *badger.DB
	cache *lru.Cache[string, []byte]
	cm    *compressionManager
	// mu serializes ref count read-modify-write cycles.
	mu sync.Mutex
}

type Options struct {
	CacheSize   int
	Compression CompressionOptions
}

func DefaultOptions() Options {
	return Options{
		CacheSize:   1024,
		Compression: DefaultCompressionOptions(),
	}
}

func New(db *badger.DB, opts Options) (*Safe, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	cm, err := newCompressionManager(opts.Compression)
	if err != nil {
		return nil, err
	}

	return &Safe{db: db, cache: cache, cm: cm}, nil
}

// Store saves content under its sha256 and returns the hash. Storing
// content that already exists only bumps its reference count. name is
// used to decide whether compression is worthwhile.
func (s *Safe) Store(name string, content []byte) (string, error) {
	if content == nil {
		content = []byte{}
	}
	hash := HashContent(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		meta, err := getMeta(txn, hash)
		switch {
		case err == nil:
			meta.RefCount++
			return setMeta(txn, meta)
		case !errors.Is(err, ErrContentNotFound):
			return err
		}

		stored, compressed := s.cm.compress(name, content)
		meta = ContentMeta{
			Hash:       hash,
			Size:       int64(len(content)),
			StoredSize: int64(len(stored)),
			RefCount:   1,
			Compressed: compressed,
			CreatedAt:  time.Now().UTC(),
		}
		if err := txn.Set(blobKey(hash), stored); err != nil {
			return err
		}
		return setMeta(txn, meta)
	})
	if err != nil {
		return "", fmt.Errorf("storing content: %w", err)
	}

	s.cache.Add(hash, content)
	return hash, nil
}

// Get returns the content for hash, verifying it on the way out of storage.
func (s *Safe) Get(hash string) ([]byte, error) {
	if !isValidHash(hash) {
		return nil, ErrInvalidHash
	}
	if content, ok := s.cache.Get(hash); ok {
		return content, nil
	}

	var content []byte
	err := s.db.View(func(txn *badger.Txn) error {
		meta, err := getMeta(txn, hash)
		if err != nil {
			return err
		}
		item, err := txn.Get(blobKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrContentNotFound
		} else if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if meta.Compressed {
			raw, err = s.cm.decompress(raw)
			if err != nil {
				return fmt.Errorf("decompressing content: %w", err)
			}
		}
		content = raw
		return nil
	})
	if err != nil {
		return nil, err
	}

	if HashContent(content) != hash {
		return nil, ErrHashMismatch
	}
	s.cache.Add(hash, content)
	return content, nil
}

// Release drops one reference and deletes the blob when none remain.
func (s *Safe) Release(hash string) error {
	if !isValidHash(hash) {
		return ErrInvalidHash
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		meta, err := getMeta(txn, hash)
		if err != nil {
			return err
		}
		if meta.RefCount > 1 {
			meta.RefCount--
			return setMeta(txn, meta)
		}
		removed = true
		if err := txn.Delete(blobKey(hash)); err != nil {
			return err
		}
		return txn.Delete(metaKey(hash))
	})
	if err != nil {
		return err
	}
	if removed {
		s.cache.Remove(hash)
	}
	return nil
}

// StoreBatch stores several named contents, releasing what it stored if
// any one fails.
func (s *Safe) StoreBatch(contents map[string][]byte) (map[string]string, error) {
	hashes := make(map[string]string, len(contents))
	for name, content := range contents {
		hash, err := s.Store(name, content)
		if err != nil {
			for _, h := range hashes {
				_ = s.Release(h)
			}
			return nil, fmt.Errorf("storing %s: %w", name, err)
		}
		hashes[name] = hash
	}
	return hashes, nil
}

// HashContent returns the hex sha256 of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func isValidHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func blobKey(hash string) []byte { return []byte("blob:" + hash) }
func metaKey(hash string) []byte { return []byte("blobmeta:" + hash) }

func getMeta(txn *badger.Txn, hash string) (ContentMeta, error) {
	var meta ContentMeta
	item, err := txn.Get(metaKey(hash))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return meta, ErrContentNotFound
	}
	if err != nil {
		return meta, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &meta)
	})
	return meta, err
}

func setMeta(txn *badger.Txn, meta ContentMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return txn.Set(metaKey(meta.Hash), data)
}
