// Package template renders the prompts sent to the model. Prompts are plain
// strings with {{variable}} placeholders; each build or fix stage has its own
// template plus a system prompt that fixes the response format.
package template

import (
	"fmt"
	"strings"

	"github.com/parchlabs/sitesmith/internal/project"
)

// Variables holds the data to be injected into template placeholders.
type Variables struct {
	Project     string // Project name
	Request     string // The user's original site request
	Instruction string // Current plan blob
	Files       string // Formatted generated files with content
	Logs        string // Raw deployment log lines
	FileList    string // Flat list of current file names
	FileContent string // Content block from the most recent read, if any
	LastAction  string // Name of the previous fix action
	History     string // Formatted fix action history
}

// Render replaces {{variable}} placeholders in template with actual values.
// Unknown placeholders are left untouched.
func Render(template string, vars Variables) string {
	result := template

	replacements := map[string]string{
		"{{project}}":      vars.Project,
		"{{request}}":      vars.Request,
		"{{instruction}}":  vars.Instruction,
		"{{files}}":        vars.Files,
		"{{logs}}":         vars.Logs,
		"{{file_list}}":    vars.FileList,
		"{{file_content}}": vars.FileContent,
		"{{last_action}}":  vars.LastAction,
		"{{history}}":      vars.History,
	}

	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// FormatFiles formats generated files with their full content for model
// context. Later files need to reference earlier ones by real content, so
// nothing is truncated here.
func FormatFiles(files []project.GeneratedFile) string {
	if len(files) == 0 {
		return "No files generated yet."
	}

	var sb strings.Builder
	for i, f := range files {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("### %s\n", f.Name))
		if f.UsedFor != "" {
			sb.WriteString(fmt.Sprintf("Used for: %s\n", f.UsedFor))
		}
		sb.WriteString("```\n")
		sb.WriteString(f.Code)
		if !strings.HasSuffix(f.Code, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```\n")
	}
	return sb.String()
}

// FormatFileList formats a flat name-only listing. The fix stage sends this
// instead of full contents; the model has to read a file explicitly before
// it sees the body.
func FormatFileList(names []string) string {
	if len(names) == 0 {
		return "No files in project."
	}

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- %s\n", name))
	}
	return sb.String()
}
