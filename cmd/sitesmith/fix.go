package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var fixFlags struct {
	project  string
	logs     string
	headless bool
	dataDir  string
	model    string
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Repair a project using deployment logs",
	Long: `Repair a project using deployment logs.

The fix command feeds failure logs to the model and applies the corrective
actions it picks, one per round: inspecting files, rewriting them, renaming
them or removing them, until the model reports the problem resolved or the
attempt budget runs out.

Logs come from --logs or stdin:

  sitesmith deploy -p my-site 2>&1 | sitesmith fix -p my-site`,
	RunE: runFix,
}

func init() {
	fixCmd.Flags().StringVarP(&fixFlags.project, "project", "p", "", "Project name (required)")
	fixCmd.Flags().StringVarP(&fixFlags.logs, "logs", "l", "", "Path to a log file (default: read stdin)")
	fixCmd.Flags().BoolVar(&fixFlags.headless, "headless", false, "Run without TUI (logging only)")
	fixCmd.Flags().StringVar(&fixFlags.dataDir, "data-dir", "", "Data directory for NATS storage (default: .sitesmith)")
	fixCmd.Flags().StringVarP(&fixFlags.model, "model", "m", "", "Model override for repair rounds")
	_ = fixCmd.MarkFlagRequired("project")
}

func runFix(cmd *cobra.Command, args []string) error {
	logs, fromStdin, err := readFixLogs(fixFlags.logs)
	if err != nil {
		return err
	}
	if strings.TrimSpace(logs) == "" {
		return fmt.Errorf("deployment logs are required: pass --logs <file> or pipe them on stdin")
	}

	cfg, err := loadConfig(fixFlags.model, fixFlags.dataDir)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// A piped stdin leaves no terminal for the TUI to take over.
	headless := cfg.Headless || fixFlags.headless || fromStdin

	orch, err := newOrchestrator(cfg, fixFlags.project, headless)
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

	if err := orch.RunFix(logs); err != nil {
		return err
	}

	orch.Wait()
	return nil
}

// readFixLogs reads failure logs from the given file, or from stdin when the
// path is empty and something is piped in. The bool reports whether stdin was
// consumed.
func readFixLogs(path string) (string, bool, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", false, fmt.Errorf("failed to read logs: %w", err)
		}
		return string(data), false, nil
	}

	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return "", false, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", true, fmt.Errorf("failed to read logs from stdin: %w", err)
	}
	return string(data), true, nil
}
