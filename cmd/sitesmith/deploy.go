package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var deployFlags struct {
	project string
	dataDir string
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a project's files to the hosting pipeline",
	Long: `Deploy a project's files to the hosting pipeline.

All project files upload in one request. On success the live URL is printed
and recorded; on failure the pipeline's logs go to stderr so they can be
piped straight into sitesmith fix.`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringVarP(&deployFlags.project, "project", "p", "", "Project name (required)")
	deployCmd.Flags().StringVar(&deployFlags.dataDir, "data-dir", "", "Data directory for NATS storage (default: .sitesmith)")
	_ = deployCmd.MarkFlagRequired("project")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("", deployFlags.dataDir)
	if err != nil {
		return err
	}
	if cfg.DeployEndpoint == "" {
		return fmt.Errorf("deploy_endpoint is not configured (set it in config or SITESMITH_DEPLOY_ENDPOINT)")
	}

	orch, err := newOrchestrator(cfg, deployFlags.project, true)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	if err := orch.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}
	defer func() {
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down gracefully...")
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
		os.Exit(0)
	}()

	return orch.RunDeploy()
}
