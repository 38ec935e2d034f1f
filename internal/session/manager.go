package session

import (
	"context"
	stderrors "errors"
	"fmt"

	"uigen/internal/errors"
	"uigen/internal/logging"
	"uigen/internal/metrics"
	"uigen/internal/project"
	"uigen/internal/storage"
	"uigen/internal/vfs"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const DefaultProjectName = "Untitled project"

// CreateOptions seeds a new session. ProjectID loads a saved project;
// otherwise Files, if any, become the initial content.
type CreateOptions struct {
	ProjectID string
	Files     map[string]string
}

// Manager holds live sessions, evicting the least recently used once
// the cap is reached.
type Manager struct {
	sessions *lru.Cache[string, *Session]
	projects project.Box
	logger   *logging.Logger
}

// NewManager creates a manager. projects may be nil, in which case
// saving and loading projects is unavailable.
func NewManager(maxSessions int, projects project.Box, logger *logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	cache, err := lru.NewWithEvict[string, *Session](maxSessions, func(id string, _ *Session) {
		metrics.ActiveSessions.Dec()
	})
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	return &Manager{sessions: cache, projects: projects, logger: logger}, nil
}

func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*Session, error) {
	fs := vfs.New()
	s := newSession(uuid.New().String(), fs, m.logger)

	files := opts.Files
	if opts.ProjectID != "" {
		p, loaded, err := m.loadProject(opts.ProjectID)
		if err != nil {
			return nil, err
		}
		files = loaded
		s.bind(p.ID, p.Name)
		s.AppendMessages(p.Messages...)
	}

	if len(files) > 0 {
		if err := fs.Load(files); err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("invalid seed files: %v", err), nil)
		}
	}

	metrics.ActiveSessions.Inc()
	if evicted := m.sessions.Add(s.ID, s); evicted {
		metrics.SessionsEvicted.Inc()
	}

	m.logger.WithRequestID(ctx).Info("session created",
		zap.String("session_id", s.ID),
		zap.String("project_id", opts.ProjectID),
		zap.Int("files", fs.Len()),
	)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("session not found: %s", id))
	}
	return s, nil
}

// Close discards a session and its file system.
func (m *Manager) Close(id string) error {
	if !m.sessions.Remove(id) {
		return errors.NotFound(fmt.Sprintf("session not found: %s", id))
	}
	return nil
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Save persists the session's files and messages. The first save creates
// a project; later saves update it. An empty name keeps the current one.
func (m *Manager) Save(ctx context.Context, id, name string) (*project.Project, error) {
	if m.projects == nil {
		return nil, errors.Conflict("project storage is not configured")
	}
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = s.Name()
	}
	if name == "" {
		name = DefaultProjectName
	}

	p := &project.Project{
		ID:       s.ProjectID(),
		Name:     name,
		Messages: s.Messages(),
	}
	files := s.Files()

	if p.ID == "" {
		p.ID = uuid.New().String()
		err = m.projects.Create(p, files)
	} else {
		err = m.projects.Save(p, files)
	}
	if err != nil {
		return nil, storageError(err)
	}

	s.bind(p.ID, p.Name)
	m.logger.WithRequestID(ctx).Info("project saved",
		zap.String("session_id", s.ID),
		zap.String("project_id", p.ID),
		zap.Int("revision", p.Revision),
	)
	return p, nil
}

func (m *Manager) loadProject(id string) (*project.Project, map[string]string, error) {
	if m.projects == nil {
		return nil, nil, errors.Conflict("project storage is not configured")
	}
	p, err := m.projects.Get(id)
	if err != nil {
		return nil, nil, storageError(err)
	}
	files, err := m.projects.Files(id)
	if err != nil {
		return nil, nil, storageError(err)
	}
	return p, files, nil
}

// storageError maps storage failures onto API error types.
func storageError(err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, storage.ErrNotFound):
		return errors.NotFound(err.Error())
	case stderrors.Is(err, storage.ErrExists):
		return errors.Conflict(err.Error())
	default:
		return errors.Internal(err.Error())
	}
}
