package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/tui/theme"
)

const (
	logoText1 = "█▀▀ ▀ ▀█▀ █▀▀ █▀▀ █▀▄▀█ ▀ ▀█▀ █ █"
	logoText2 = "▄▄█ █  █  ██▄ ▄▄█ █ ▀ █ █  █  █▀█"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// A local .env can carry SITESMITH_API_KEY and friends during development.
	_ = godotenv.Load()

	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sitesmith",
	Short: "AI website builder with auto-fix, deploys and embedded persistence",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	// Set Long description with logo
	rootCmd.Long = renderLogo() + `

sitesmith turns a plain-language request into a deployable website. A model
plans the site, writes one file per round, repairs it from deployment logs,
and ships it to a hosting pipeline. Every step is event-sourced in embedded
NATS JetStream and streamed to a full-screen Bubbletea TUI.`

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(setupCmd)
}
