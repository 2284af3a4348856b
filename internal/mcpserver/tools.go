package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the project file and deployment tools with the MCP server.
func (s *Server) registerTools() error {
	// list_files: enumerate the generated files and their purposes
	s.mcpServer.AddTool(
		mcp.NewTool("list_files",
			mcp.WithDescription("List the files in the project with the purpose each one serves"),
		),
		s.handleListFiles,
	)

	// read_file: return a file's full source
	s.mcpServer.AddTool(
		mcp.NewTool("read_file",
			mcp.WithDescription("Read the full contents of a project file"),
			mcp.WithString("name", mcp.Required(),
				mcp.Description("Exact file name, e.g. index.html or css/style.css"),
			),
		),
		s.handleReadFile,
	)

	// write_file: create or replace a file
	s.mcpServer.AddTool(
		mcp.NewTool("write_file",
			mcp.WithDescription("Create or replace a project file with new contents"),
			mcp.WithString("name", mcp.Required(),
				mcp.Description("Exact file name to write"),
			),
			mcp.WithString("code", mcp.Required(),
				mcp.Description("Complete file contents"),
			),
			mcp.WithString("used_for",
				mcp.Description("Short description of what the file is for (kept from the previous version when omitted)"),
			),
		),
		s.handleWriteFile,
	)

	// delete_file: remove a file
	s.mcpServer.AddTool(
		mcp.NewTool("delete_file",
			mcp.WithDescription("Delete a project file"),
			mcp.WithString("name", mcp.Required(),
				mcp.Description("Exact file name to delete"),
			),
		),
		s.handleDeleteFile,
	)

	// move_file: rename a file, keeping its contents and purpose
	s.mcpServer.AddTool(
		mcp.NewTool("move_file",
			mcp.WithDescription("Move or rename a project file"),
			mcp.WithString("name", mcp.Required(),
				mcp.Description("Current file name"),
			),
			mcp.WithString("new_path", mcp.Required(),
				mcp.Description("New file name"),
			),
		),
		s.handleMoveFile,
	)

	// project_status: build/fix progress and deployment state
	s.mcpServer.AddTool(
		mcp.NewTool("project_status",
			mcp.WithDescription("Report the project's plan progress, round counts and deployment state"),
		),
		s.handleProjectStatus,
	)

	// deploy_site: publish the current file set
	s.mcpServer.AddTool(
		mcp.NewTool("deploy_site",
			mcp.WithDescription("Deploy the project's current files and return the public URL"),
		),
		s.handleDeploySite,
	)

	return nil
}
