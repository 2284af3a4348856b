package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"
)

var buildFlags struct {
	project  string
	request  string
	headless bool
	dataDir  string
	model    string
}

var buildCmd = &cobra.Command{
	Use:   "build [request...]",
	Short: "Generate a website from a plain-language request",
	Long: `Generate a website from a plain-language request.

The build command asks the model for a file-by-file plan, then generates one
file per round until the plan is complete. Every file is persisted the moment
it arrives, so an interrupted build keeps its progress and continues where it
left off when run again on the same project.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildFlags.project, "project", "p", "", "Project name (default: derived from the request)")
	buildCmd.Flags().StringVarP(&buildFlags.request, "request", "r", "", "Site request (alternative to positional args)")
	buildCmd.Flags().BoolVar(&buildFlags.headless, "headless", false, "Run without TUI (logging only)")
	buildCmd.Flags().StringVar(&buildFlags.dataDir, "data-dir", "", "Data directory for NATS storage (default: .sitesmith)")
	buildCmd.Flags().StringVarP(&buildFlags.model, "model", "m", "", "Model override for this run")
}

func runBuild(cmd *cobra.Command, args []string) error {
	request := strings.TrimSpace(buildFlags.request)
	if request == "" {
		request = strings.TrimSpace(strings.Join(args, " "))
	}
	if request == "" {
		return fmt.Errorf("a site request is required, e.g. sitesmith build \"a bakery site with a menu page\"")
	}

	projectName := buildFlags.project
	if projectName == "" {
		projectName = deriveProjectName(request)
	}

	cfg, err := loadConfig(buildFlags.model, buildFlags.dataDir)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create orchestrator
	orch, err := newOrchestrator(cfg, projectName, cfg.Headless || buildFlags.headless)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	// Start orchestrator
	if err := orch.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	// Ensure cleanup always runs using defer
	defer func() {
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	// Setup signal handling for graceful shutdown
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

	if err := orch.RunBuild(request); err != nil {
		return err
	}

	// Keep the TUI up after the run so the result can be reviewed.
	orch.Wait()
	return nil
}

// deriveProjectName turns a site request into a short project name that
// satisfies the NATS subject constraints.
func deriveProjectName(request string) string {
	words := strings.Fields(request)
	if len(words) > 4 {
		words = words[:4]
	}
	name := slug.Make(strings.Join(words, " "))
	if len(name) > 64 {
		name = strings.Trim(name[:64], "-")
	}
	if name == "" {
		return "site"
	}
	return name
}
