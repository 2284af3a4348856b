package project

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory FileStore. It backs engine tests and ephemeral
// preview sessions where nothing should be persisted.
type Memory struct {
	mu       sync.RWMutex
	projects map[string]*Collection
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{projects: make(map[string]*Collection)}
}

// Files returns the project's files in first-write order.
func (m *Memory) Files(ctx context.Context, project string) ([]GeneratedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.projects[project]
	if !ok {
		return nil, nil
	}
	return c.Files(), nil
}

// PutFile creates or replaces a file by exact name.
func (m *Memory) PutFile(ctx context.Context, project string, params PutFileParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.projects[project]
	if !ok {
		c = NewCollection()
		m.projects[project] = c
	}
	c.Put(GeneratedFile{
		Name:      params.Name,
		Code:      params.Code,
		Timestamp: time.Now(),
		UsedFor:   params.UsedFor,
	})
	return nil
}

// DeleteFile removes a file by exact name. Deleting an absent name is a no-op.
func (m *Memory) DeleteFile(ctx context.Context, project, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.projects[project]; ok {
		c.Delete(name)
	}
	return nil
}
