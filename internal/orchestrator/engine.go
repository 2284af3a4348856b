package orchestrator

import (
	"context"
	"fmt"
	"time"

	ierr "github.com/parchlabs/sitesmith/internal/errors"
	"github.com/parchlabs/sitesmith/internal/instruction"
	"github.com/parchlabs/sitesmith/internal/llm"
	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/project"
	"github.com/parchlabs/sitesmith/internal/template"
)

// Recorder logs run milestones to the event store. It is optional: loops
// driven purely in memory pass nil and only file persistence happens.
type Recorder interface {
	RecordPlan(ctx context.Context, project, instruction string) error
	RecordBuildRound(ctx context.Context, project string, params project.BuildRoundParams) error
	RecordBuildComplete(ctx context.Context, project string, rounds int) error
	RecordFixAction(ctx context.Context, project string, params project.FixActionParams) error
	RecordFixStopped(ctx context.Context, project string, rounds int) error
	RecordDeploy(ctx context.Context, project, url string) error
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Model          llm.Model         // Generation model, required
	PlanModel      llm.Model         // Planning model, defaults to Model
	FixModel       llm.Model         // Repair model, defaults to Model
	Store          project.FileStore // File persistence, required
	Recorder       Recorder          // Event log, optional
	Emitter        Emitter           // Progress events, optional
	MaxBuildRounds int               // Default 50
	MaxFixRounds   int               // Default 15
}

// Engine drives the two model loops. Both are strictly sequential: a round's
// model call, file mutation and persistence complete before the next round
// starts, because each round's context depends on the previous round's
// writes being queryable.
type Engine struct {
	model     llm.Model
	planModel llm.Model
	fixModel  llm.Model
	store     project.FileStore
	rec       Recorder
	emitter   Emitter
	maxBuild  int
	maxFix    int
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.PlanModel == nil {
		cfg.PlanModel = cfg.Model
	}
	if cfg.FixModel == nil {
		cfg.FixModel = cfg.Model
	}
	if cfg.MaxBuildRounds <= 0 {
		cfg.MaxBuildRounds = 50
	}
	if cfg.MaxFixRounds <= 0 {
		cfg.MaxFixRounds = 15
	}
	return &Engine{
		model:     cfg.Model,
		planModel: cfg.PlanModel,
		fixModel:  cfg.FixModel,
		store:     cfg.Store,
		rec:       cfg.Recorder,
		emitter:   cfg.Emitter,
		maxBuild:  cfg.MaxBuildRounds,
		maxFix:    cfg.MaxFixRounds,
	}
}

// WithEmitter returns a copy of the engine whose progress events go to em.
// Callers that stream runs per connection, like the HTTP API, route each run
// to its own sink this way without rewiring the shared engine.
func (e *Engine) WithEmitter(em Emitter) *Engine {
	clone := *e
	clone.emitter = em
	return &clone
}

func (e *Engine) emit(ev Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
}

// Rate limits are the one model failure worth waiting out in place: the
// request was fine, the provider just wants a pause.
const rateLimitRetries = 3

var rateLimitPause = 20 * time.Second // lowered in tests

// chat sends one model call, sitting out up to rateLimitRetries rate-limit
// rejections. An exhausted retry allowance comes back as a transient error so
// callers can tell wait-and-resume apart from a broken run.
func (e *Engine) chat(ctx context.Context, m llm.Model, op string, messages []llm.Message) (string, error) {
	var last error
	for attempt := 1; ; attempt++ {
		raw, err := m.Chat(ctx, messages)
		if err == nil {
			return raw, nil
		}
		if !llm.IsRateLimit(err) {
			return "", err
		}
		last = err
		if attempt >= rateLimitRetries {
			break
		}
		logger.Warn("%s rate limited, pausing %s (attempt %d/%d)", op, rateLimitPause, attempt, rateLimitRetries)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(rateLimitPause):
		}
	}
	return "", ierr.NewTransientError(op, last)
}

// Plan runs the single planning call and returns the instruction blob. A
// failed call or a blob with no buildable entries is fatal: nothing has been
// written yet, so the caller simply retries the whole request.
func (e *Engine) Plan(ctx context.Context, proj string, history []llm.Message) (string, error) {
	messages := append([]llm.Message{{Role: "system", Content: template.PlanSystem}}, history...)

	e.emit(Event{Stage: StagePlan, Message: "Planning site structure"})

	raw, err := e.chat(ctx, e.planModel, "planning", messages)
	if err != nil {
		return "", fmt.Errorf("planning failed: %w", err)
	}

	plan := instruction.Parse(raw)
	if len(plan.Entries) == 0 {
		logger.Warn("Plan for %s has no buildable entries: %.80s", proj, raw)
		return "", fmt.Errorf("planning failed: model returned no buildable files")
	}

	if e.rec != nil {
		if err := e.rec.RecordPlan(ctx, proj, raw); err != nil {
			return "", fmt.Errorf("failed to record plan: %w", err)
		}
	}

	_, total := plan.Progress()
	e.emit(Event{Stage: StagePlan, Total: total, Message: plan.Narrative})

	logger.Info("Plan for %s: %d files", proj, total)
	return raw, nil
}

// loadCollection pulls the project's current files into an ordered
// collection the loops can mutate between rounds.
func (e *Engine) loadCollection(ctx context.Context, proj string) (*project.Collection, error) {
	files, err := e.store.Files(ctx, proj)
	if err != nil {
		return nil, fmt.Errorf("failed to load project files: %w", err)
	}
	return project.NewCollection(files...), nil
}
