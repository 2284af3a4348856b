package project

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/xid"

	"github.com/parchlabs/sitesmith/internal/nats"
)

// RecordPlan stores the instruction blob produced by the plan stage. The
// raw text is kept verbatim so later runs can display what was planned.
func (s *Store) RecordPlan(ctx context.Context, project, instruction string) error {
	event := Event{
		ID:        xid.New().String(),
		Timestamp: time.Now(),
		Project:   project,
		Type:      nats.EventTypeBuild,
		Action:    "plan",
		Data:      instruction,
	}
	_, err := s.PublishEvent(ctx, event)
	return err
}

// BuildRoundParams describes one completed build round.
type BuildRoundParams struct {
	Round int    `json:"round"`
	Page  string `json:"page"`  // File written this round
	Done  int    `json:"done"`  // Completed entries after this round
	Total int    `json:"total"` // Total plan entries
}

// RecordBuildRound logs a completed generation round.
func (s *Store) RecordBuildRound(ctx context.Context, project string, params BuildRoundParams) error {
	meta, _ := json.Marshal(params)
	event := Event{
		ID:        xid.New().String(),
		Timestamp: time.Now(),
		Project:   project,
		Type:      nats.EventTypeBuild,
		Action:    "round",
		Meta:      meta,
	}
	_, err := s.PublishEvent(ctx, event)
	return err
}

// RecordBuildComplete marks a build run as finished by the model.
func (s *Store) RecordBuildComplete(ctx context.Context, project string, rounds int) error {
	meta, _ := json.Marshal(map[string]any{"rounds": rounds})
	event := Event{
		ID:        xid.New().String(),
		Timestamp: time.Now(),
		Project:   project,
		Type:      nats.EventTypeBuild,
		Action:    "complete",
		Meta:      meta,
	}
	_, err := s.PublishEvent(ctx, event)
	return err
}

// FixActionParams describes one executed auto-fix round.
type FixActionParams struct {
	Round   int    `json:"round"`
	Action  string `json:"action"`
	Target  string `json:"target,omitempty"`
	OK      bool   `json:"ok"`
	Summary string `json:"summary,omitempty"`
}

// RecordFixAction logs one executed repair action.
func (s *Store) RecordFixAction(ctx context.Context, project string, params FixActionParams) error {
	meta, _ := json.Marshal(params)
	event := Event{
		ID:        xid.New().String(),
		Timestamp: time.Now(),
		Project:   project,
		Type:      nats.EventTypeFix,
		Action:    "action",
		Meta:      meta,
		Data:      params.Summary,
	}
	_, err := s.PublishEvent(ctx, event)
	return err
}

// RecordFixStopped marks a fix run that hit the iteration cap without done.
func (s *Store) RecordFixStopped(ctx context.Context, project string, rounds int) error {
	meta, _ := json.Marshal(map[string]any{"rounds": rounds})
	event := Event{
		ID:        xid.New().String(),
		Timestamp: time.Now(),
		Project:   project,
		Type:      nats.EventTypeFix,
		Action:    "stopped",
		Meta:      meta,
	}
	_, err := s.PublishEvent(ctx, event)
	return err
}

// RecordDeploy stores the public URL of a successful deployment.
func (s *Store) RecordDeploy(ctx context.Context, project, url string) error {
	event := Event{
		ID:        xid.New().String(),
		Timestamp: time.Now(),
		Project:   project,
		Type:      nats.EventTypeDeploy,
		Action:    "done",
		Data:      url,
	}
	_, err := s.PublishEvent(ctx, event)
	return err
}
