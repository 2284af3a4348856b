package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/parchlabs/sitesmith/internal/config"
	"github.com/parchlabs/sitesmith/internal/deploy"
	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/nats"
	"github.com/parchlabs/sitesmith/internal/orchestrator"
	"github.com/parchlabs/sitesmith/internal/project"
)

// loadConfig loads the layered config and applies shared CLI overrides on
// top, keeping the precedence flags > env > project config > global config.
func loadConfig(model, dataDir string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if model != "" {
		cfg.Model = model
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if lvl, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.LogFile != "" {
		if err := logger.LogToFile(cfg.LogFile); err != nil {
			logger.Warn("Failed to open log file %s: %v", cfg.LogFile, err)
		}
	}
	return cfg, nil
}

// newOrchestrator assembles an orchestrator for one project from the
// resolved config.
func newOrchestrator(cfg *config.Config, projectName string, headless bool) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(orchestrator.Config{
		Project:            projectName,
		DataDir:            cfg.DataDir,
		Headless:           headless,
		BaseURL:            cfg.BaseURL,
		APIKey:             cfg.APIKey,
		Model:              cfg.Model,
		PlanModel:          cfg.PlanModel,
		FixModel:           cfg.FixModel,
		DeployEndpoint:     cfg.DeployEndpoint,
		DeployToken:        cfg.DeployToken,
		DeployPollAttempts: cfg.DeployPollAttempts,
		DeployPollInterval: cfg.DeployPollInterval,
		MaxBuildRounds:     cfg.MaxBuildRounds,
		MaxFixRounds:       cfg.MaxFixRounds,
	})
}

// newDeployer builds the pipeline client, or returns nil when no endpoint is
// configured.
func newDeployer(cfg *config.Config) *deploy.Client {
	if cfg.DeployEndpoint == "" {
		return nil
	}
	return deploy.NewClient(deploy.Options{
		Endpoint:     cfg.DeployEndpoint,
		Token:        cfg.DeployToken,
		PollAttempts: cfg.DeployPollAttempts,
		PollInterval: time.Duration(cfg.DeployPollInterval) * time.Second,
	})
}

// connectStore joins the shared NATS instance, starting an embedded server
// when none is running, and returns the project store with a cleanup
// function. Commands that serve multiple projects use this instead of a
// per-project orchestrator.
func connectStore(ctx context.Context, cfgDataDir string) (*project.Store, func(), error) {
	dataDir := filepath.Join(cfgDataDir, "nats")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create NATS data directory: %w", err)
	}

	var ns *natsserver.Server
	nc := nats.TryConnectExisting(dataDir)
	if nc == nil {
		server, port, err := nats.StartEmbeddedNATS(dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start NATS server: %w", err)
		}
		ns = server
		nc, err = nats.ConnectToPort(port)
		if err != nil {
			ns.Shutdown()
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
	}

	cleanup := func() {
		if ns != nil {
			_ = nats.Shutdown(nc, ns)
			nats.RemovePortFile(dataDir)
			return
		}
		nc.Close()
	}

	js, err := jetstream.New(nc)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	stream, err := nats.SetupStream(ctx, js)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to setup stream: %w", err)
	}
	return project.NewStore(js, stream), cleanup, nil
}
