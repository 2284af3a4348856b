package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parchlabs/sitesmith/internal/project"
)

func TestExportWritesNestedPaths(t *testing.T) {
	dir := t.TempDir()

	files := []project.GeneratedFile{
		{Name: "index.html", Code: "<html></html>", UsedFor: "Landing page"},
		{Name: "css/style.css", Code: "body { margin: 0; }"},
		{Name: "js/vendor/app.js", Code: "console.log('hi');"},
	}

	if err := Export(dir, files); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected %s on disk: %v", f.Name, err)
		}
		if string(data) != f.Code {
			t.Errorf("%s contents = %q, want %q", f.Name, data, f.Code)
		}
	}
}

func TestExportOverwritesStaleFiles(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	err := Export(dir, []project.GeneratedFile{{Name: "index.html", Code: "fresh"}})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "fresh" {
		t.Errorf("contents = %q, want %q", data, "fresh")
	}
}

func TestExportRejectsEscapingNames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")

	for _, name := range []string{"../evil.html", "/etc/evil.html", "a/../../evil.html", ""} {
		err := Export(dir, []project.GeneratedFile{{Name: name, Code: "x"}})
		if err == nil {
			t.Errorf("Export() with name %q should have failed", name)
		}
	}

	// Nothing may end up beside the export directory
	entries, err := os.ReadDir(filepath.Dir(dir))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), "evil") {
			t.Errorf("escaped file written: %s", e.Name())
		}
	}
}
