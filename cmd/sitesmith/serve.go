package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parchlabs/sitesmith/internal/httpapi"
	"github.com/parchlabs/sitesmith/internal/llm"
	"github.com/parchlabs/sitesmith/internal/orchestrator"
)

var serveFlags struct {
	addr    string
	dataDir string
	model   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the build, fix and deploy API over HTTP",
	Long: `Serve the build, fix and deploy API over HTTP.

Browser clients drive the same loops the CLI runs, with engine progress
streamed as Server-Sent Events. One server handles every project in the
data directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.addr, "addr", "a", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveFlags.dataDir, "data-dir", "", "Data directory for NATS storage (default: .sitesmith)")
	serveCmd.Flags().StringVarP(&serveFlags.model, "model", "m", "", "Model override")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(serveFlags.model, serveFlags.dataDir)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, cleanup, err := connectStore(ctx, cfg.DataDir)
	if err != nil {
		return err
	}
	defer cleanup()

	base := llm.New(llm.Options{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	engine := orchestrator.NewEngine(orchestrator.EngineConfig{
		Model:          base,
		PlanModel:      base.WithModel(cfg.PlanModel),
		FixModel:       base.WithModel(cfg.FixModel),
		Store:          store,
		Recorder:       store,
		MaxBuildRounds: cfg.MaxBuildRounds,
		MaxFixRounds:   cfg.MaxFixRounds,
	})

	srv := httpapi.New(httpapi.Config{
		Loader:   store,
		Engine:   engine,
		Deployer: newDeployer(cfg),
		Recorder: store,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down gracefully...")
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	return srv.Start(serveFlags.addr)
}
