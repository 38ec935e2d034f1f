// internal/api/handlers.go
package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"uigen/internal/agent"
	"uigen/internal/diff"
	"uigen/internal/errors"
	"uigen/internal/logging"
	"uigen/internal/project"
	"uigen/internal/session"
	"uigen/internal/storage"
	"uigen/internal/validation"

	"go.uber.org/zap"
)

// maxCommandBytes bounds a single tool call body.
const maxCommandBytes = 4 << 20

type CreateSessionRequest struct {
	ProjectID string            `json:"project_id,omitempty"`
	Files     map[string]string `json:"files,omitempty"`
}

type SessionResponse struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id,omitempty"`
	Files     []string `json:"files"`
}

type CommandResponse struct {
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
	Command string `json:"command,omitempty"`
	Path    string `json:"path,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

type FileResponse struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Lines    int    `json:"lines"`
	Revision uint64 `json:"revision"`
}

type FilesResponse struct {
	Files map[string]string `json:"files"`
}

type GenerateRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type SaveRequest struct {
	Name string `json:"name,omitempty" validate:"max=200"`
}

type ProjectResponse struct {
	*project.Project
	Contents map[string]string `json:"contents,omitempty"`
}

type SessionHandler struct {
	manager *session.Manager
	runner  *agent.Runner
	diff    *diff.Engine
	logger  *logging.Logger
}

func NewSessionHandler(manager *session.Manager, runner *agent.Runner, logger *logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SessionHandler{
		manager: manager,
		runner:  runner,
		diff:    diff.NewEngine(diff.DefaultContext),
		logger:  logger,
	}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s, err := h.manager.Create(r.Context(), session.CreateOptions{ProjectID: req.ProjectID, Files: req.Files})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{ID: s.ID, ProjectID: s.ProjectID(), Files: s.Paths()})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Command executes one raw str_replace_editor call. Tool failures are
// results, so they still return 200.
func (h *SessionHandler) Command(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	if err != nil {
		writeError(w, errors.ValidationError("request body too large or unreadable", nil))
		return
	}

	var resp CommandResponse
	if withDiff, _ := strconv.ParseBool(r.URL.Query().Get("diff")); withDiff {
		res, d := s.RunWithDiff(r.Context(), raw, h.diff)
		resp = CommandResponse{Result: res.Text, IsError: res.IsError, Command: res.Command, Path: res.Path, Diff: d}
	} else {
		res := s.Run(r.Context(), raw)
		resp = CommandResponse{Result: res.Text, IsError: res.IsError, Command: res.Command, Path: res.Path}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Files returns every file, or one file when ?path= is given.
func (h *SessionHandler) Files(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusOK, FilesResponse{Files: s.Files()})
		return
	}

	f, err := s.FileSystem().Get(path)
	if err != nil {
		writeError(w, errors.NotFound(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, FileResponse{Path: f.Path, Content: f.Content(), Lines: f.LineCount(), Revision: f.Revision})
}

func (h *SessionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req GenerateRequest
	if err := validation.DecodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}

	out, err := h.runner.Run(r.Context(), s, req.Prompt)
	if err != nil {
		h.logger.WithRequestID(r.Context()).Error("generation failed", zap.String("session_id", s.ID), zap.Error(err))
		writeError(w, errors.Internal(fmt.Sprintf("generation failed: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.manager.Save(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type ProjectHandler struct {
	box project.Box
}

func NewProjectHandler(box project.Box) *ProjectHandler {
	return &ProjectHandler{box: box}
}

// List returns projects, newest first. ?name= filters by substring and
// ?since= / ?until= (RFC 3339) by last update; either bound may be omitted.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := updateRange(q.Get("since"), q.Get("until"))
	if err != nil {
		writeError(w, err)
		return
	}

	var projects []*project.Project
	name := q.Get("name")
	switch {
	case !start.IsZero():
		projects, err = h.box.FindByTimeRange(start, end)
		if err == nil && name != "" {
			projects = matchName(projects, name)
		}
	case name != "":
		projects, err = h.box.FindByName(name)
	default:
		projects, err = h.box.List()
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.box.Get(id)
	if err != nil {
		writeError(w, storageError(err))
		return
	}
	contents, err := h.box.Files(id)
	if err != nil {
		writeError(w, storageError(err))
		return
	}
	writeJSON(w, http.StatusOK, ProjectResponse{Project: p, Contents: contents})
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.box.Delete(r.PathValue("id")); err != nil {
		writeError(w, storageError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateRange parses the list time bounds. Both empty means no bound; a
// missing since starts at the epoch and a missing until ends now.
func updateRange(since, until string) (time.Time, time.Time, error) {
	if since == "" && until == "" {
		return time.Time{}, time.Time{}, nil
	}
	start, end := time.Unix(0, 0).UTC(), time.Now().UTC()
	for _, b := range []struct {
		name  string
		value string
		dst   *time.Time
	}{{"since", since, &start}, {"until", until, &end}} {
		if b.value == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, b.value)
		if err != nil {
			return time.Time{}, time.Time{}, errors.ValidationError(
				fmt.Sprintf("%s must be an RFC 3339 timestamp", b.name), nil)
		}
		*b.dst = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.ValidationError("until must not be before since", nil)
	}
	return start, end, nil
}

func matchName(projects []*project.Project, name string) []*project.Project {
	needle := strings.ToLower(name)
	var out []*project.Project
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// decodeOptional decodes a JSON body if one was sent.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return validation.Struct(v)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.ValidationError("invalid request body", nil)
	}
	return validation.Struct(v)
}

func storageError(err error) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.NotFound(err.Error())
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	e, ok := errors.As(err)
	if !ok {
		e = errors.Internal(err.Error())
	}
	writeJSON(w, errors.StatusCode(e), e)
}
