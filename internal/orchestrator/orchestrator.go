package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/parchlabs/sitesmith/internal/deploy"
	ierr "github.com/parchlabs/sitesmith/internal/errors"
	"github.com/parchlabs/sitesmith/internal/hooks"
	"github.com/parchlabs/sitesmith/internal/llm"
	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/nats"
	"github.com/parchlabs/sitesmith/internal/project"
	"github.com/parchlabs/sitesmith/internal/state"
	"github.com/parchlabs/sitesmith/internal/tui"
)

// Config holds configuration for the orchestrator.
type Config struct {
	Project            string // Project name
	DataDir            string // Data directory for NATS storage
	WorkDir            string // Working directory for hooks and exports
	Headless           bool   // Run without TUI
	BaseURL            string // LLM API base URL
	APIKey             string // LLM API key
	Model              string // Model for file generation
	PlanModel          string // Model override for planning (optional)
	FixModel           string // Model override for repair (optional)
	DeployEndpoint     string // Deployment pipeline base URL
	DeployToken        string // Deployment pipeline bearer token (optional)
	DeployPollAttempts int    // Domain polling budget (0 = default)
	DeployPollInterval int    // Seconds between domain polls (0 = default)
	MaxBuildRounds     int    // Generation round cap (0 = default)
	MaxFixRounds       int    // Repair round cap (0 = default)
}

// Orchestrator wires the embedded NATS store, the LLM engine, the deploy
// client and the TUI together for one project.
type Orchestrator struct {
	cfg        Config
	ns         *natsserver.Server // Embedded NATS server (nil if node mode)
	natsPort   int                // NATS server port
	nc         *natsgo.Conn       // NATS connection
	store      *project.Store     // Project event store
	engine     *Engine            // Build/fix engine
	deployer   *deploy.Client     // Deployment pipeline client
	hookRunner *hooks.Runner      // Lifecycle hook runner (nil if no hook file)
	tuiApp     *tui.App           // TUI application (nil if headless)
	tuiProgram *tea.Program       // Bubbletea program
	tuiDone    chan struct{}      // TUI completion signal
	ctx        context.Context    // Context for cancellation
	cancel     context.CancelFunc // Cancel function
	stopped    bool               // Track if Stop() was already called
	isPrimary  bool               // True if this instance owns the NATS server
}

// New creates a new Orchestrator with the given configuration.
func New(cfg Config) (*Orchestrator, error) {
	if err := project.ValidateName(cfg.Project); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = ".sitesmith"
	}
	if cfg.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.WorkDir = wd
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Orchestrator{
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		tuiDone: make(chan struct{}),
	}, nil
}

// Start initializes all components and starts the orchestrator.
func (o *Orchestrator) Start() error {
	logger.Info("Starting orchestrator for project '%s'", o.cfg.Project)

	logger.Debug("Ensuring NATS connection")
	if err := o.ensureNATS(); err != nil {
		logger.Error("Failed to ensure NATS: %v", err)
		return fmt.Errorf("failed to ensure NATS: %w", err)
	}
	if o.isPrimary {
		logger.Debug("Running as primary (owns NATS server)")
	} else {
		logger.Debug("Running as node (connected to existing server)")
	}

	logger.Debug("Setting up JetStream")
	if err := o.setupJetStream(); err != nil {
		logger.Error("Failed to setup JetStream: %v", err)
		return fmt.Errorf("failed to setup JetStream: %w", err)
	}
	logger.Debug("JetStream setup complete")

	if o.cfg.DeployEndpoint != "" {
		o.deployer = deploy.NewClient(deploy.Options{
			Endpoint:     o.cfg.DeployEndpoint,
			Token:        o.cfg.DeployToken,
			PollAttempts: o.cfg.DeployPollAttempts,
			PollInterval: time.Duration(o.cfg.DeployPollInterval) * time.Second,
		})
	}

	runner, err := hooks.NewRunner(o.cfg.WorkDir)
	if err != nil {
		logger.Warn("Hooks disabled: %v", err)
	} else {
		o.hookRunner = runner
	}

	base := llm.New(llm.Options{
		BaseURL: o.cfg.BaseURL,
		APIKey:  o.cfg.APIKey,
		Model:   o.cfg.Model,
	})
	o.engine = NewEngine(EngineConfig{
		Model:          base,
		PlanModel:      base.WithModel(o.cfg.PlanModel),
		FixModel:       base.WithModel(o.cfg.FixModel),
		Store:          o.store,
		Recorder:       o.store,
		Emitter:        EmitterFunc(o.forward),
		MaxBuildRounds: o.cfg.MaxBuildRounds,
		MaxFixRounds:   o.cfg.MaxFixRounds,
	})

	if !o.cfg.Headless {
		logger.Debug("Starting TUI")
		if err := o.startTUI(); err != nil {
			logger.Error("Failed to start TUI: %v", err)
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		logger.Debug("TUI started")
	} else {
		logger.Info("Running in headless mode")
	}

	if err := state.RememberProject(o.cfg.DataDir, o.cfg.Project); err != nil {
		logger.Debug("Failed to remember project: %v", err)
	}

	logger.Info("Orchestrator started successfully")
	return nil
}

// notifyRunStart tells the TUI a run began so the status bar animates.
func (o *Orchestrator) notifyRunStart(kind string) {
	if o.tuiProgram != nil {
		o.tuiProgram.Send(tui.RunStartedMsg{Kind: kind})
	}
}

// notifyRunEnd tells the TUI the active run finished.
func (o *Orchestrator) notifyRunEnd(err error) {
	if o.tuiProgram == nil {
		return
	}
	msg := tui.RunFinishedMsg{}
	if err != nil {
		msg.Err = err.Error()
	}
	o.tuiProgram.Send(msg)
}

// forward routes engine events to the TUI when one is running, otherwise to
// stdout.
func (o *Orchestrator) forward(ev Event) {
	if o.tuiProgram != nil {
		o.tuiProgram.Send(tui.EngineEventMsg{
			Stage:   ev.Stage,
			Round:   ev.Round,
			Action:  ev.Action,
			Target:  ev.Target,
			Done:    ev.Done,
			Total:   ev.Total,
			Message: ev.Message,
			Diff:    ev.Diff,
			Err:     ev.Err,
		})
		return
	}
	if ev.Err != "" {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Stage, ev.Err)
		return
	}
	if ev.Message != "" {
		fmt.Printf("[%s] %s\n", ev.Stage, ev.Message)
	}
}

// RunBuild plans the site for the given request and generates its files
// round by round until the model reports completion.
func (o *Orchestrator) RunBuild(request string) error {
	if request == "" {
		return fmt.Errorf("a site request is required")
	}
	logger.Info("Starting build for project '%s'", o.cfg.Project)

	state, err := o.store.LoadState(o.ctx, o.cfg.Project)
	if err != nil {
		logger.Error("Failed to load project state: %v", err)
		return fmt.Errorf("failed to load project state: %w", err)
	}
	if o.cfg.Headless {
		fmt.Printf("=== Project: %s ===\n", o.cfg.Project)
		fmt.Printf("Existing files: %d\n\n", state.Files.Len())
	}

	o.notifyRunStart("build")
	var result *BuildResult
	err = ierr.Recover(func() error {
		var runErr error
		result, runErr = o.engine.Build(o.ctx, BuildParams{Project: o.cfg.Project, Request: request})
		return runErr
	})
	o.notifyRunEnd(err)
	if err != nil {
		logger.Error("Build failed: %v", err)
		var panicErr *ierr.PanicError
		if errors.As(err, &panicErr) {
			logger.Error("Build panicked with stack trace: %s", panicErr.StackTrace)
			return fmt.Errorf("build panicked: %w", err)
		}
		if ierr.IsTransient(err) {
			// Files written so far are persisted; the run picks up where it
			// stopped.
			if o.cfg.Headless {
				fmt.Println("\nThe provider is rate limiting; wait a little and run build again to resume")
			}
			return fmt.Errorf("build halted: %w", err)
		}
		return fmt.Errorf("build failed: %w", err)
	}

	if result.Complete {
		logger.Info("Build for '%s' complete: %d files in %d rounds", o.cfg.Project, len(result.Files), result.Rounds)
		if o.cfg.Headless {
			fmt.Printf("\n✓ Build complete: %d files in %d rounds\n", len(result.Files), result.Rounds)
		}
	} else if o.cfg.Headless {
		fmt.Printf("\nBuild stopped after %d rounds; run again to continue\n", result.Rounds)
	}

	o.runHook(hooks.PostBuild, hooks.Variables{
		Project: o.cfg.Project,
		Rounds:  fmt.Sprintf("%d", result.Rounds),
	})
	return nil
}

// RunFix feeds deployment logs into the repair loop.
func (o *Orchestrator) RunFix(logs string) error {
	if logs == "" {
		return fmt.Errorf("deployment logs are required")
	}
	logger.Info("Starting fix for project '%s'", o.cfg.Project)

	o.notifyRunStart("fix")
	var result *FixResult
	err := ierr.Recover(func() error {
		var runErr error
		result, runErr = o.engine.Fix(o.ctx, FixParams{Project: o.cfg.Project, Logs: logs})
		return runErr
	})
	o.notifyRunEnd(err)
	if err != nil {
		logger.Error("Fix failed: %v", err)
		var panicErr *ierr.PanicError
		if errors.As(err, &panicErr) {
			logger.Error("Fix panicked with stack trace: %s", panicErr.StackTrace)
			return fmt.Errorf("fix panicked: %w", err)
		}
		if ierr.IsTransient(err) {
			if o.cfg.Headless {
				fmt.Println("\nThe provider is rate limiting; wait a little and run fix again with the same logs")
			}
			return fmt.Errorf("fix halted: %w", err)
		}
		return fmt.Errorf("fix failed: %w", err)
	}

	if result.Done {
		logger.Info("Fix for '%s' done after %d rounds", o.cfg.Project, result.Rounds)
		if o.cfg.Headless {
			fmt.Printf("\n✓ Fix complete after %d rounds\n", result.Rounds)
		}
	} else if o.cfg.Headless {
		fmt.Printf("\nFix stopped after %d rounds without resolution\n", result.Rounds)
	}

	o.runHook(hooks.PostFix, hooks.Variables{
		Project: o.cfg.Project,
		Rounds:  fmt.Sprintf("%d", result.Rounds),
	})
	return nil
}

// RunDeploy pushes the project's current files to the deployment pipeline
// and records the resulting URL. On failure the pipeline's logs go to stderr
// so they can be fed straight into RunFix.
func (o *Orchestrator) RunDeploy() error {
	if o.cfg.DeployEndpoint == "" {
		return fmt.Errorf("deploy endpoint not configured")
	}
	logger.Info("Starting deploy for project '%s'", o.cfg.Project)

	state, err := o.store.LoadState(o.ctx, o.cfg.Project)
	if err != nil {
		logger.Error("Failed to load project state: %v", err)
		return fmt.Errorf("failed to load project state: %w", err)
	}
	if state.Files.Len() == 0 {
		return fmt.Errorf("project '%s' has no files to deploy", o.cfg.Project)
	}
	if !state.ReadyToDeploy {
		logger.Warn("Project '%s' is not marked ready; deploying anyway", o.cfg.Project)
	}

	files := make(map[string]string, state.Files.Len())
	for _, f := range state.Files.Files() {
		files[f.Name] = f.Code
	}

	o.runHook(hooks.PreDeploy, hooks.Variables{Project: o.cfg.Project})

	o.notifyRunStart("deploy")
	result, err := o.deployer.Deploy(o.ctx, o.cfg.Project, files)
	o.notifyRunEnd(err)
	if err != nil {
		logger.Error("Deploy failed: %v", err)
		if result != nil && result.Logs != "" {
			fmt.Fprintln(os.Stderr, result.Logs)
		}
		return err
	}

	if err := o.store.RecordDeploy(o.ctx, o.cfg.Project, result.URL); err != nil {
		logger.Error("Failed to record deploy: %v", err)
		return fmt.Errorf("failed to record deploy: %w", err)
	}

	o.engine.emit(Event{Stage: StageDeploy, Message: fmt.Sprintf("Deployed at %s", result.URL)})
	logger.Info("Project '%s' deployed at %s", o.cfg.Project, result.URL)
	if o.cfg.Headless {
		fmt.Printf("\n✓ Deployed at %s\n", result.URL)
	}

	o.runHook(hooks.PostDeploy, hooks.Variables{
		Project: o.cfg.Project,
		URL:     result.URL,
	})
	return nil
}

// runHook fires a lifecycle hook if a runner is configured. Hook failures
// are logged, never fatal.
func (o *Orchestrator) runHook(event hooks.Event, vars hooks.Variables) {
	if o.hookRunner == nil {
		return
	}
	if err := o.hookRunner.Run(o.ctx, event, vars); err != nil {
		logger.Warn("Hook %s failed: %v", event, err)
	}
}

// Stop gracefully shuts down all components.
// It collects errors from each component and returns a combined error if any fail.
// Multiple calls to Stop() are safe and idempotent.
func (o *Orchestrator) Stop() error {
	if o.stopped {
		return nil
	}
	o.stopped = true

	logger.Info("Stopping orchestrator for project '%s'", o.cfg.Project)

	multiErr := &ierr.MultiError{}

	if o.cancel != nil {
		o.cancel()
	}

	// Stop TUI and wait for it to finish
	if o.tuiProgram != nil {
		logger.Debug("Stopping TUI")
		o.tuiProgram.Quit()
		select {
		case <-o.tuiDone:
			logger.Debug("TUI stopped successfully")
		case <-time.After(2 * time.Second):
			logger.Warn("TUI shutdown timed out after 2s")
			multiErr.Append(ierr.NewTransientError("TUI shutdown", fmt.Errorf("timed out after 2s")))
		}
		o.tuiProgram = nil
	}

	// Close NATS connection (and server if primary)
	if o.isPrimary {
		logger.Debug("Shutting down NATS server (primary mode)")
		if err := nats.Shutdown(o.nc, o.ns); err != nil {
			logger.Error("NATS shutdown failed: %v", err)
			multiErr.Append(fmt.Errorf("NATS shutdown failed: %w", err))
		} else {
			logger.Debug("NATS shut down successfully")
		}
		nats.RemovePortFile(filepath.Join(o.cfg.DataDir, "nats"))
	} else {
		logger.Debug("Closing NATS connection (node mode)")
		if o.nc != nil {
			o.nc.Close()
		}
	}

	o.nc = nil
	o.ns = nil

	logger.Info("Orchestrator stopped")

	return multiErr.ErrorOrNil()
}

// Store exposes the project store for callers that drive it directly, like
// the HTTP API and the MCP server.
func (o *Orchestrator) Store() *project.Store {
	return o.store
}

// Engine exposes the build/fix engine.
func (o *Orchestrator) Engine() *Engine {
	return o.engine
}

// Deployer exposes the deployment pipeline client. It is nil when no deploy
// endpoint is configured.
func (o *Orchestrator) Deployer() *deploy.Client {
	return o.deployer
}

// Wait blocks until the TUI exits. Headless instances return immediately, so
// commands can call it unconditionally after a run.
func (o *Orchestrator) Wait() {
	if o.tuiProgram == nil {
		return
	}
	<-o.tuiDone
}

// NATSPort returns the port of the NATS server this instance talks to.
func (o *Orchestrator) NATSPort() int {
	return o.natsPort
}

// ensureNATS connects to an existing NATS server or starts a new one.
// If another sitesmith instance is already running with a NATS server,
// this instance runs in "node mode" and connects to the existing server.
// Otherwise, it starts a new embedded server and runs in "primary mode".
func (o *Orchestrator) ensureNATS() error {
	dataDir := filepath.Join(o.cfg.DataDir, "nats")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create NATS data directory: %w", err)
	}

	// Try to connect to existing server first
	if nc := nats.TryConnectExisting(dataDir); nc != nil {
		logger.Info("Connected to existing NATS server (node mode)")
		o.nc = nc
		o.isPrimary = false
		if port, err := nats.ReadPortFile(dataDir); err == nil {
			o.natsPort = port
		}
		return nil
	}

	// No server running, start one (primary mode)
	logger.Info("Starting NATS server (primary mode)")
	ns, port, err := nats.StartEmbeddedNATS(dataDir)
	if err != nil {
		return fmt.Errorf("failed to start NATS server: %w", err)
	}
	o.ns = ns
	o.natsPort = port
	o.isPrimary = true

	nc, err := nats.ConnectToPort(port)
	if err != nil {
		// Failed to connect to server we just started - shut it down
		ns.Shutdown()
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	o.nc = nc
	return nil
}

// setupJetStream creates the JetStream stream and initializes the project store.
func (o *Orchestrator) setupJetStream() error {
	js, err := jetstream.New(o.nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream, err := nats.SetupStream(o.ctx, js)
	if err != nil {
		return fmt.Errorf("failed to setup stream: %w", err)
	}

	o.store = project.NewStore(js, stream)
	return nil
}

// startTUI initializes and starts the Bubbletea TUI.
func (o *Orchestrator) startTUI() error {
	o.tuiApp = tui.NewApp(o.ctx, o.store, o.cfg.Project, o.cfg.DataDir, o.nc)

	o.tuiProgram = tea.NewProgram(o.tuiApp)

	// Start TUI in background with panic recovery
	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "TUI panic: %v\n", r)
			}
			close(o.tuiDone)
		}()

		if _, err := o.tuiProgram.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		}
	}()

	// Monitor TUI quit and cancel orchestrator context
	go func() {
		<-o.tuiDone
		logger.Debug("TUI quit detected, cancelling orchestrator context")
		if o.cancel != nil {
			o.cancel()
		}
	}()

	return nil
}
