package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/parchlabs/sitesmith/internal/logger"
)

const uiStateFile = "ui-state.json"

// UIState holds persistent UI preferences that carry across runs.
type UIState struct {
	Sidebar     SidebarState `json:"sidebar"`
	LastProject string       `json:"last_project,omitempty"`
}

// SidebarState holds file panel visibility.
type SidebarState struct {
	Visible bool `json:"visible"`
}

// DefaultUIState returns the preferences used before anything was saved.
func DefaultUIState() *UIState {
	return &UIState{
		Sidebar: SidebarState{Visible: true},
	}
}

// Load reads preferences from <dataDir>/ui-state.json. A missing or
// unreadable file yields defaults so the TUI always has something to
// start from.
func Load(dataDir string) *UIState {
	data, err := os.ReadFile(filepath.Join(dataDir, uiStateFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to read UI state file: %v", err)
		}
		return DefaultUIState()
	}

	var st UIState
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warn("Failed to parse UI state JSON: %v", err)
		return DefaultUIState()
	}
	return &st
}

// Save writes preferences to <dataDir>/ui-state.json, creating the data
// directory when needed.
func Save(dataDir string, st *UIState) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling UI state: %w", err)
	}

	path := filepath.Join(dataDir, uiStateFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing UI state file: %w", err)
	}

	logger.Debug("UI state saved to %s", path)
	return nil
}

// RememberProject records the most recently used project name.
// Best effort load-modify-save, keeping other preferences intact.
func RememberProject(dataDir, project string) error {
	st := Load(dataDir)
	st.LastProject = project
	return Save(dataDir, st)
}
