// internal/project/types.go
package project

import (
	"time"
)

// Project is a saved virtual file system plus the conversation that
// produced it.
type Project struct {
	ID       string             `json:"id" validate:"required"`
	Name     string             `json:"name" validate:"required,max=200"`
	Files    map[string]FileRef `json:"files"`
	Messages []Message          `json:"messages,omitempty" validate:"dive"`
	// Revision counts saves.
	Revision int `json:"revision"`
	// LastChange compares this revision with the one before it.
	LastChange ChangeStats `json:"last_change"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// ChangeStats counts files and lines that differ between two revisions.
type ChangeStats struct {
	FilesAdded    int `json:"files_added"`
	FilesRemoved  int `json:"files_removed"`
	FilesModified int `json:"files_modified"`
	Additions     int `json:"additions"`
	Deletions     int `json:"deletions"`
}

// FileRef points at file content held in the blob safe.
type FileRef struct {
	Hash  string `json:"hash"`
	Size  int64  `json:"size"`
	Lines int    `json:"lines"`
}

type Message struct {
	Role    string `json:"role" validate:"oneof=user assistant tool system"`
	Content string `json:"content"`
}

func (p *Project) GetID() string {
	return p.ID
}

// Box stores projects together with their file contents.
type Box interface {
	Create(p *Project, files map[string]string) error
	Get(id string) (*Project, error)
	Files(id string) (map[string]string, error)
	Save(p *Project, files map[string]string) error
	Delete(id string) error
	List() ([]*Project, error)

	FindByName(name string) ([]*Project, error)
	FindByTimeRange(start, end time.Time) ([]*Project, error)
}
