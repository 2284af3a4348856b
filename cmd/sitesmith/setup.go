package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parchlabs/sitesmith/internal/config"
)

var setupFlags struct {
	project bool
	force   bool
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a sitesmith configuration file",
	Long: `Create a sitesmith configuration file with sensible defaults.

By default, creates a global config at ~/.config/sitesmith/sitesmith.yml.
Use --project to create a project-local config in the current directory.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
}

func runSetup(cmd *cobra.Command, args []string) error {
	// Determine target path
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	// Check if config already exists
	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := &config.Config{
		BaseURL:            "https://api.openai.com/v1",
		Model:              "gpt-4.1",
		MaxBuildRounds:     50,
		MaxFixRounds:       15,
		RequestTimeout:     600,
		DeployPollAttempts: 40,
		DeployPollInterval: 3,
		DataDir:            ".sitesmith",
		LogLevel:           "info",
	}

	// Write config to target location
	var err error
	if setupFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Print success message
	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Set SITESMITH_API_KEY (or api_key in the config) and run 'sitesmith build' to get started.")

	return nil
}

// fileExists checks if a file exists (helper for setup command).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
