package project

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/parchlabs/sitesmith/internal/nats"
)

// FileStore is the persistence surface the build and fix loops write
// through: get, put and delete by project and file name. Put is idempotent
// by name (writing the same name twice overwrites, never duplicates).
type FileStore interface {
	Files(ctx context.Context, project string) ([]GeneratedFile, error)
	PutFile(ctx context.Context, project string, params PutFileParams) error
	DeleteFile(ctx context.Context, project, name string) error
}

// PutFileParams represents the parameters for writing a file.
type PutFileParams struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	UsedFor string `json:"used_for,omitempty"`
}

// PutFile appends a file.put event, creating or replacing the named file.
func (s *Store) PutFile(ctx context.Context, project string, params PutFileParams) error {
	if params.Name == "" {
		return fmt.Errorf("file name is required")
	}

	meta, _ := json.Marshal(map[string]any{
		"name":     params.Name,
		"used_for": params.UsedFor,
	})

	event := Event{
		ID:        xid.New().String(),
		Timestamp: time.Now(),
		Project:   project,
		Type:      nats.EventTypeFile,
		Action:    "put",
		Data:      params.Code,
		Meta:      meta,
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to persist file %s: %w", params.Name, err)
	}
	return nil
}

// DeleteFile appends a file.delete event removing the named file. Deleting
// a name that does not exist is a no-op on replay.
func (s *Store) DeleteFile(ctx context.Context, project, name string) error {
	if name == "" {
		return fmt.Errorf("file name is required")
	}

	meta, _ := json.Marshal(map[string]any{"name": name})

	event := Event{
		ID:        xid.New().String(),
		Timestamp: time.Now(),
		Project:   project,
		Type:      nats.EventTypeFile,
		Action:    "delete",
		Meta:      meta,
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", name, err)
	}
	return nil
}

// Files returns the project's current file collection in first-write order,
// reconstructed from the event stream.
func (s *Store) Files(ctx context.Context, project string) ([]GeneratedFile, error) {
	state, err := s.LoadState(ctx, project)
	if err != nil {
		return nil, err
	}
	return state.Files.Files(), nil
}
