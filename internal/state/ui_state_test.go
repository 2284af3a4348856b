package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		st := Load(filepath.Join(t.TempDir(), "never-written"))
		if st == nil {
			t.Fatal("Load returned nil")
		}
		if !st.Sidebar.Visible {
			t.Error("file panel should be visible by default")
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "ui-state.json"), []byte("not json {{{"), 0644); err != nil {
			t.Fatal(err)
		}
		st := Load(dir)
		if !st.Sidebar.Visible {
			t.Error("corrupt state should fall back to defaults")
		}
	})
}

func TestSaveRoundTrip(t *testing.T) {
	// A nested path proves Save creates the data directory itself.
	dir := filepath.Join(t.TempDir(), "nested", ".sitesmith")

	st := &UIState{
		Sidebar:     SidebarState{Visible: false},
		LastProject: "bakery",
	}
	if err := Save(dir, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ui-state.json")); err != nil {
		t.Fatalf("state file missing: %v", err)
	}

	loaded := Load(dir)
	if loaded.Sidebar.Visible {
		t.Error("sidebar visibility did not round-trip")
	}
	if loaded.LastProject != "bakery" {
		t.Errorf("LastProject = %q, want %q", loaded.LastProject, "bakery")
	}
}

func TestRememberProject(t *testing.T) {
	dir := t.TempDir()

	if err := Save(dir, &UIState{Sidebar: SidebarState{Visible: false}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := RememberProject(dir, "storefront"); err != nil {
		t.Fatalf("RememberProject: %v", err)
	}

	loaded := Load(dir)
	if loaded.LastProject != "storefront" {
		t.Errorf("LastProject = %q, want %q", loaded.LastProject, "storefront")
	}
	if loaded.Sidebar.Visible {
		t.Error("RememberProject clobbered sidebar visibility")
	}
}
