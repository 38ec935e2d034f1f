package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"uigen/internal/diff"
	"uigen/internal/logging"
	"uigen/internal/metrics"
	"uigen/internal/project"
	"uigen/internal/tool"
	"uigen/internal/vfs"
)

// Session is one generation context: a file system, the editor bound to
// it, and the conversation so far.
type Session struct {
	ID        string
	CreatedAt time.Time

	fs     *vfs.FileSystem
	editor *tool.Editor

	mu        sync.Mutex
	projectID string
	name      string
	messages  []project.Message
}

func newSession(id string, fs *vfs.FileSystem, logger *logging.Logger) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		fs:        fs,
		editor:    tool.NewEditor(fs, logger),
	}
}

// Run decodes and executes a raw tool call.
func (s *Session) Run(ctx context.Context, raw []byte) tool.Result {
	start := time.Now()
	res := s.editor.Run(ctx, raw)
	metrics.ObserveCommand(res.Command, res.IsError, time.Since(start))
	return res
}

// Execute runs an already decoded command.
func (s *Session) Execute(ctx context.Context, cmd tool.Command) tool.Result {
	start := time.Now()
	res := s.editor.Execute(ctx, cmd)
	metrics.ObserveCommand(res.Command, res.IsError, time.Since(start))
	return res
}

// RunWithDiff runs raw and, when it changed a file, returns a unified
// diff of that file.
func (s *Session) RunWithDiff(ctx context.Context, raw []byte, engine *diff.Engine) (tool.Result, string) {
	cmd, err := tool.Parse(raw)
	if err != nil {
		return s.Run(ctx, raw), ""
	}

	var before string
	if f, err := s.fs.Get(cmd.Target()); err == nil {
		before = f.Content()
	}

	res := s.Execute(ctx, cmd)
	if !res.Mutated {
		return res, ""
	}
	f, err := s.fs.Get(res.Path)
	if err != nil {
		return res, ""
	}
	return res, engine.DiffFiles(res.Path, before, f.Content()).Format()
}

func (s *Session) FileSystem() *vfs.FileSystem {
	return s.fs
}

// Files returns every file's content keyed by path.
func (s *Session) Files() map[string]string {
	return s.fs.Snapshot()
}

// Paths returns the sorted paths of all files.
func (s *Session) Paths() []string {
	snap := s.fs.Snapshot()
	paths := make([]string, 0, len(snap))
	for p := range snap {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (s *Session) AppendMessages(msgs ...project.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
}

func (s *Session) Messages() []project.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]project.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ProjectID is the project this session was loaded from or last saved to.
func (s *Session) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) bind(projectID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = projectID
	s.name = name
}
