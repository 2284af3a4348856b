// Package workspace mirrors a project's generated files onto the local
// filesystem and imports manual edits back into the event log.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parchlabs/sitesmith/internal/project"
)

// Export writes every file in the set under dir, creating nested
// directories as needed. Existing files are overwritten; files on disk
// that are not part of the set are left alone.
func Export(dir string, files []project.GeneratedFile) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	for _, f := range files {
		rel, err := relPathFor(f.Name)
		if err != nil {
			return err
		}

		target := filepath.Join(dir, rel)
		if parent := filepath.Dir(target); parent != dir {
			if err := os.MkdirAll(parent, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", parent, err)
			}
		}

		if err := os.WriteFile(target, []byte(f.Code), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	return nil
}

// relPathFor converts a generated file name into a relative path that is
// guaranteed to stay inside the export directory. Generated names come from
// a model, so absolute paths and traversal are rejected rather than cleaned
// into something surprising.
func relPathFor(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("file name is empty")
	}

	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file name escapes the workspace: %s", name)
	}

	return clean, nil
}
