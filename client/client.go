// client/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"uigen/internal/agent"
	"uigen/internal/api"
	apperrors "uigen/internal/errors"
	"uigen/internal/project"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// generation runs several model turns per request
			Timeout: 5 * time.Minute,
		},
	}
}

// Session operations
func (c *Client) CreateSession(ctx context.Context, req api.CreateSessionRequest) (*api.SessionResponse, error) {
	var out api.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CloseSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

// Command sends one raw tool call. withDiff asks for a unified diff of the
// touched file.
func (c *Client) Command(ctx context.Context, id string, raw json.RawMessage, withDiff bool) (*api.CommandResponse, error) {
	path := "/api/sessions/" + url.PathEscape(id) + "/commands"
	if withDiff {
		path += "?diff=true"
	}
	var out api.CommandResponse
	if err := c.do(ctx, http.MethodPost, path, raw, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Files(ctx context.Context, id string) (map[string]string, error) {
	var out api.FilesResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id)+"/files", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (c *Client) Generate(ctx context.Context, id, prompt string) (*agent.Outcome, error) {
	var out agent.Outcome
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/generate",
		api.GenerateRequest{Prompt: prompt}, http.StatusOK, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Save(ctx context.Context, id, name string) (*project.Project, error) {
	var out project.Project
	err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/save",
		api.SaveRequest{Name: name}, http.StatusOK, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ProjectQuery filters ListProjects. Zero fields are left out.
type ProjectQuery struct {
	Name  string
	Since time.Time
	Until time.Time
}

func (q ProjectQuery) encode() string {
	v := url.Values{}
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	if !q.Since.IsZero() {
		v.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	if !q.Until.IsZero() {
		v.Set("until", q.Until.UTC().Format(time.RFC3339))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Project operations
func (c *Client) ListProjects(ctx context.Context, q ProjectQuery) ([]*project.Project, error) {
	path := "/api/projects" + q.encode()
	var out []*project.Project
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*api.ProjectResponse, error) {
	var out api.ProjectResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

// do sends body as JSON (raw messages pass through untouched) and decodes
// the response into out. Non-matching statuses become *apperrors.Error.
func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, ok := body.(json.RawMessage)
		if !ok {
			var err error
			if data, err = json.Marshal(body); err != nil {
				return err
			}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var apiErr apperrors.Error
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
