package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/parchlabs/sitesmith/internal/instruction"
	"github.com/parchlabs/sitesmith/internal/project"
)

// handleListFiles lists every file in the project with its purpose.
func (s *Server) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.store.LoadState(ctx, s.projName)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: failed to load state: %v", err)), nil
	}

	if state.Files.Len() == 0 {
		return mcp.NewToolResultText("No files in project."), nil
	}

	lines := []string{fmt.Sprintf("%d file(s):", state.Files.Len())}
	for _, f := range state.Files.Files() {
		if f.UsedFor != "" {
			lines = append(lines, fmt.Sprintf("  %s: %s", f.Name, f.UsedFor))
		} else {
			lines = append(lines, fmt.Sprintf("  %s", f.Name))
		}
	}

	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

// handleReadFile returns the raw contents of one file.
func (s *Server) handleReadFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultText("error: no arguments provided"), nil
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultText("error: missing or invalid 'name' parameter"), nil
	}

	state, err := s.store.LoadState(ctx, s.projName)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: failed to load state: %v", err)), nil
	}

	file, ok := state.Files.Get(name)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("error: file not found: %s", name)), nil
	}

	return mcp.NewToolResultText(file.Code), nil
}

// handleWriteFile creates or replaces a file. When the caller omits used_for
// on an existing file the previous purpose is kept, matching the fix loop.
func (s *Server) handleWriteFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultText("error: no arguments provided"), nil
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultText("error: missing or invalid 'name' parameter"), nil
	}

	code, ok := args["code"].(string)
	if !ok || code == "" {
		return mcp.NewToolResultText("error: missing or invalid 'code' parameter"), nil
	}

	// used_for is optional
	usedFor := ""
	if v, ok := args["used_for"].(string); ok {
		usedFor = v
	}

	if usedFor == "" {
		state, err := s.store.LoadState(ctx, s.projName)
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("error: failed to load state: %v", err)), nil
		}
		if prev, ok := state.Files.Get(name); ok {
			usedFor = prev.UsedFor
		}
	}

	err := s.store.PutFile(ctx, s.projName, project.PutFileParams{
		Name:    name,
		Code:    code,
		UsedFor: usedFor,
	})
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Wrote %s (%d bytes)", name, len(code))), nil
}

// handleDeleteFile removes a file from the project.
func (s *Server) handleDeleteFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultText("error: no arguments provided"), nil
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultText("error: missing or invalid 'name' parameter"), nil
	}

	state, err := s.store.LoadState(ctx, s.projName)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: failed to load state: %v", err)), nil
	}

	if !state.Files.Has(name) {
		return mcp.NewToolResultText(fmt.Sprintf("error: file not found: %s", name)), nil
	}

	if err := s.store.DeleteFile(ctx, s.projName, name); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted %s", name)), nil
}

// handleMoveFile renames a file. The new name is written before the old one
// is removed so an interruption never loses the contents.
func (s *Server) handleMoveFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultText("error: no arguments provided"), nil
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultText("error: missing or invalid 'name' parameter"), nil
	}

	newPath, ok := args["new_path"].(string)
	if !ok || newPath == "" {
		return mcp.NewToolResultText("error: missing or invalid 'new_path' parameter"), nil
	}

	if newPath == name {
		return mcp.NewToolResultText(fmt.Sprintf("error: %s already has that name", name)), nil
	}

	state, err := s.store.LoadState(ctx, s.projName)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: failed to load state: %v", err)), nil
	}

	file, ok := state.Files.Get(name)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("error: file not found: %s", name)), nil
	}

	err = s.store.PutFile(ctx, s.projName, project.PutFileParams{
		Name:    newPath,
		Code:    file.Code,
		UsedFor: file.UsedFor,
	})
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}

	if err := s.store.DeleteFile(ctx, s.projName, name); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Moved %s to %s", name, newPath)), nil
}

// handleProjectStatus summarizes plan progress, round counts and deployment state.
func (s *Server) handleProjectStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.store.LoadState(ctx, s.projName)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: failed to load state: %v", err)), nil
	}

	lines := []string{fmt.Sprintf("Project: %s", state.Project)}

	if state.Plan == "" {
		lines = append(lines, "Plan: none recorded")
	} else {
		done, total := instruction.Parse(state.Plan).Progress()
		lines = append(lines, fmt.Sprintf("Plan: %d of %d files done", done, total))
	}

	lines = append(lines,
		fmt.Sprintf("Files: %d", state.Files.Len()),
		fmt.Sprintf("Build rounds: %d", state.BuildRounds),
		fmt.Sprintf("Fix rounds: %d", state.FixRounds),
		fmt.Sprintf("Ready to deploy: %t", state.ReadyToDeploy),
	)

	if state.DeployURL != "" {
		lines = append(lines, fmt.Sprintf("Deployed at: %s", state.DeployURL))
	}

	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

// handleDeploySite publishes the current file set and records the URL.
func (s *Server) handleDeploySite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deployer == nil {
		return mcp.NewToolResultText("error: no deployment endpoint configured"), nil
	}

	state, err := s.store.LoadState(ctx, s.projName)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: failed to load state: %v", err)), nil
	}

	if state.Files.Len() == 0 {
		return mcp.NewToolResultText("error: project has no files to deploy"), nil
	}

	files := make(map[string]string, state.Files.Len())
	for _, f := range state.Files.Files() {
		files[f.Name] = f.Code
	}

	result, err := s.deployer.Deploy(ctx, s.projName, files)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}

	if err := s.store.RecordDeploy(ctx, s.projName, result.URL); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: deployed to %s but failed to record it: %v", result.URL, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deployed to %s", result.URL)), nil
}
