package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parchlabs/sitesmith/internal/mcpserver"
	"github.com/parchlabs/sitesmith/internal/project"
)

var mcpFlags struct {
	project string
	dataDir string
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose a project's files as MCP tools",
	Long: `Expose a project's files as MCP tools.

Starts a streamable HTTP MCP server on a random local port so agents and
editors can list, read, write, move and delete the project's files, check
its status, and trigger deploys.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVarP(&mcpFlags.project, "project", "p", "", "Project name (required)")
	mcpCmd.Flags().StringVar(&mcpFlags.dataDir, "data-dir", "", "Data directory for NATS storage (default: .sitesmith)")
	_ = mcpCmd.MarkFlagRequired("project")
}

func runMCP(cmd *cobra.Command, args []string) error {
	if err := project.ValidateName(mcpFlags.project); err != nil {
		return err
	}

	cfg, err := loadConfig("", mcpFlags.dataDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, cleanup, err := connectStore(ctx, cfg.DataDir)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := mcpserver.New(store, newDeployer(cfg), mcpFlags.project)
	port, err := srv.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}
	defer func() { _ = srv.Stop() }()

	fmt.Printf("MCP server for project '%s' listening on port %d\n", mcpFlags.project, port)
	fmt.Printf("Connect tools to %s\n", srv.URL())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		fmt.Println("\nShutting down gracefully...")
	case <-ctx.Done():
	}
	return nil
}
