// internal/project/storage/store.go
package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"uigen/internal/diff"
	"uigen/internal/project"
	"uigen/internal/safe"
	"uigen/internal/storage"
	"uigen/internal/validation"

	"github.com/dgraph-io/badger/v4"
)

// Store keeps project records in badger and file contents in the safe.
type Store struct {
	store  *storage.BadgerStore[*project.Project]
	safe   *safe.Safe
	engine *diff.Engine
	// mu orders saves so blob releases never race a concurrent save of the
	// same project.
	mu sync.Mutex
}

var _ project.Box = (*Store)(nil)

func NewStore(db *badger.DB, sf *safe.Safe) *Store {
	return &Store{
		store:  storage.NewBadgerStore[*project.Project](db, "project"),
		safe:   sf,
		engine: diff.NewEngine(0),
	}
}

func (s *Store) Create(p *project.Project, files map[string]string) error {
	if err := validation.Struct(p); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.changeStats(nil, files)
	if err != nil {
		return err
	}
	refs, err := s.storeFiles(files)
	if err != nil {
		return err
	}

	p.LastChange = stats
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	p.Files = refs
	p.Revision = 1

	if err := s.store.Create(p); err != nil {
		s.release(refs)
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

func (s *Store) Get(id string) (*project.Project, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return p, nil
}

// Files loads the content of every file in the project.
func (s *Store) Files(id string) (map[string]string, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	files := make(map[string]string, len(p.Files))
	for path, ref := range p.Files {
		content, err := s.safe.Get(ref.Hash)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		files[path] = string(content)
	}
	return files, nil
}

// Save replaces the stored files and messages of an existing project.
func (s *Store) Save(p *project.Project, files map[string]string) error {
	if err := validation.Struct(p); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Get(p.ID)
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}

	stats, err := s.changeStats(existing.Files, files)
	if err != nil {
		return err
	}
	refs, err := s.storeFiles(files)
	if err != nil {
		return err
	}

	p.Files = refs
	p.LastChange = stats
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.Revision = existing.Revision + 1

	if err := s.store.Update(p); err != nil {
		s.release(refs)
		return fmt.Errorf("saving project: %w", err)
	}
	s.release(existing.Files)
	return nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.Get(id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	s.release(p.Files)
	return nil
}

// List returns all projects, most recently updated first.
func (s *Store) List() ([]*project.Project, error) {
	projects, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

// FindByName matches names case-insensitively by substring.
func (s *Store) FindByName(name string) ([]*project.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	projects, err := s.List()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(name)
	var result []*project.Project
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *Store) FindByTimeRange(start, end time.Time) ([]*project.Project, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("start and end times are required")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end time cannot be before start time")
	}

	projects, err := s.List()
	if err != nil {
		return nil, err
	}

	var result []*project.Project
	for _, p := range projects {
		if !p.UpdatedAt.Before(start) && !p.UpdatedAt.After(end) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *Store) storeFiles(files map[string]string) (map[string]project.FileRef, error) {
	contents := make(map[string][]byte, len(files))
	for path, content := range files {
		contents[path] = []byte(content)
	}
	hashes, err := s.safe.StoreBatch(contents)
	if err != nil {
		return nil, err
	}

	refs := make(map[string]project.FileRef, len(hashes))
	for path, hash := range hashes {
		refs[path] = project.FileRef{
			Hash:  hash,
			Size:  int64(len(files[path])),
			Lines: countLines(files[path]),
		}
	}
	return refs, nil
}

// changeStats diffs files against the revision described by previous.
// Unchanged hashes are skipped without loading their content.
func (s *Store) changeStats(previous map[string]project.FileRef, files map[string]string) (project.ChangeStats, error) {
	var stats project.ChangeStats
	add := func(oldContent, newContent string) {
		r := s.engine.Diff(oldContent, newContent)
		stats.Additions += r.Stats.Additions
		stats.Deletions += r.Stats.Deletions
	}

	for path, content := range files {
		ref, ok := previous[path]
		if !ok {
			stats.FilesAdded++
			add("", content)
			continue
		}
		if ref.Hash == safe.HashContent([]byte(content)) {
			continue
		}
		old, err := s.safe.Get(ref.Hash)
		if err != nil {
			return stats, fmt.Errorf("loading previous %s: %w", path, err)
		}
		stats.FilesModified++
		add(string(old), content)
	}

	for path, ref := range previous {
		if _, ok := files[path]; ok {
			continue
		}
		old, err := s.safe.Get(ref.Hash)
		if err != nil {
			return stats, fmt.Errorf("loading previous %s: %w", path, err)
		}
		stats.FilesRemoved++
		add(string(old), "")
	}
	return stats, nil
}

func (s *Store) release(refs map[string]project.FileRef) {
	for _, ref := range refs {
		_ = s.safe.Release(ref.Hash)
	}
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}
