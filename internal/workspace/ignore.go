package workspace

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Directories and file patterns the watcher never imports, on top of
// whatever the project's .gitignore lists.
var defaultIgnorePatterns = []string{
	".git",
	".sitesmith",
	"node_modules",
	".DS_Store",
	"*.swp",
	"*.tmp",
	"*~",
}

// ignoreList filters paths the watcher should skip. Plain patterns from the
// directory's .gitignore are honored; negations and anchoring are beyond
// what manual-edit import needs.
type ignoreList struct {
	patterns []string
}

// loadIgnoreList builds the filter for dir, folding in its .gitignore when
// one exists.
func loadIgnoreList(dir string) *ignoreList {
	il := &ignoreList{patterns: append([]string(nil), defaultIgnorePatterns...)}

	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return il
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		il.patterns = append(il.patterns, strings.Trim(line, "/"))
	}

	return il
}

// Match reports whether any segment of relPath matches an ignore pattern.
// Matching per segment makes a directory pattern cover everything under it.
func (il *ignoreList) Match(relPath string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(relPath), "/") {
		for _, pattern := range il.patterns {
			if ok, _ := filepath.Match(pattern, seg); ok {
				return true
			}
		}
	}
	return false
}
