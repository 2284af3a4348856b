package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/nats"
)

// Event represents a generic event stored in the JetStream event log.
// All project mutations (file writes, deletes, build rounds, fix actions,
// deployments) are stored as events following an append-only event
// sourcing pattern.
type Event struct {
	ID        string          `json:"id"`        // NATS message sequence ID
	Timestamp time.Time       `json:"timestamp"` // When the event occurred
	Project   string          `json:"project"`   // Project name
	Type      string          `json:"type"`      // Event type: file, build, fix, deploy
	Action    string          `json:"action"`    // Action type: put, delete, plan, round, complete, action, stopped, done
	Meta      json.RawMessage `json:"meta"`      // Action-specific metadata
	Data      string          `json:"data"`      // Primary content (file code, plan text, summary)
}

// nameRe matches valid project names. Names become NATS subject tokens, so
// only alphanumerics, hyphens and underscores are allowed.
var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName checks that a project name is usable as a NATS subject token.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("project name too long: %d chars (max 64)", len(name))
	}
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid project name: %s (use only alphanumeric, hyphens, underscores)", name)
	}
	return nil
}

// Store manages project state through JetStream event sourcing.
// It provides methods for publishing events and loading state from the
// event stream.
type Store struct {
	js     jetstream.JetStream
	stream jetstream.Stream
}

// NewStore creates a new Store instance with the given JetStream context and stream.
func NewStore(js jetstream.JetStream, stream jetstream.Stream) *Store {
	return &Store{
		js:     js,
		stream: stream,
	}
}

// PublishEvent appends an event to the JetStream event log.
// Events are published to subjects following the pattern: sitesmith.{project}.{type}
func (s *Store) PublishEvent(ctx context.Context, event Event) (*jetstream.PubAck, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event: %v", err)
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := nats.SubjectForEvent(event.Project, event.Type)

	logger.Debug("Publishing event: project=%s type=%s action=%s", event.Project, event.Type, event.Action)

	ack, err := s.js.Publish(ctx, subject, data)
	if err != nil {
		logger.Error("Failed to publish event to subject %s: %v", subject, err)
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	logger.Debug("Event published successfully: seq=%d", ack.Sequence)
	return ack, nil
}

// State represents the current state of a project, reconstructed from events.
// It implements the reduce pattern by applying events to build up the
// current file collection and run markers.
type State struct {
	Project       string      `json:"project"`
	Files         *Collection `json:"files"`           // Current file collection
	Plan          string      `json:"plan"`            // Latest recorded build instruction
	BuildRounds   int         `json:"build_rounds"`    // Build rounds recorded across all runs
	FixRounds     int         `json:"fix_rounds"`      // Fix rounds recorded across all runs
	ReadyToDeploy bool        `json:"ready_to_deploy"` // A build or fix run reached a terminal done state
	DeployURL     string      `json:"deploy_url"`      // Latest successful deployment URL
}

// NewState returns an empty state for a project.
func NewState(project string) *State {
	return &State{
		Project: project,
		Files:   NewCollection(),
	}
}

// Apply applies an event to the state, implementing the reduce pattern.
func (st *State) Apply(event Event) {
	switch event.Type {
	case nats.EventTypeFile:
		st.applyFileEvent(event)
	case nats.EventTypeBuild:
		st.applyBuildEvent(event)
	case nats.EventTypeFix:
		st.applyFixEvent(event)
	case nats.EventTypeDeploy:
		st.applyDeployEvent(event)
	}
}

// applyFileEvent handles file collection mutations. Writes are last-write-wins
// by exact name; deletes remove the entry entirely.
func (st *State) applyFileEvent(event Event) {
	var meta struct {
		Name    string `json:"name"`
		UsedFor string `json:"used_for"`
	}
	json.Unmarshal(event.Meta, &meta)
	if meta.Name == "" {
		return
	}

	switch event.Action {
	case "put":
		st.Files.Put(GeneratedFile{
			Name:      meta.Name,
			Code:      event.Data,
			Timestamp: event.Timestamp,
			UsedFor:   meta.UsedFor,
		})
	case "delete":
		st.Files.Delete(meta.Name)
	}
}

// applyBuildEvent tracks plan text and round counters.
func (st *State) applyBuildEvent(event Event) {
	switch event.Action {
	case "plan":
		st.Plan = event.Data
		st.ReadyToDeploy = false
	case "round":
		st.BuildRounds++
	case "complete":
		st.ReadyToDeploy = true
	}
}

// applyFixEvent tracks fix rounds and the ready-to-deploy marker.
func (st *State) applyFixEvent(event Event) {
	switch event.Action {
	case "action":
		st.FixRounds++
		var meta struct {
			Action string `json:"action"`
		}
		json.Unmarshal(event.Meta, &meta)
		if meta.Action == "done" {
			st.ReadyToDeploy = true
		}
	case "stopped":
		// Cap reached without done; project needs manual review
	}
}

// applyDeployEvent records the latest deployment URL.
func (st *State) applyDeployEvent(event Event) {
	if event.Action == "done" && event.Data != "" {
		st.DeployURL = event.Data
	}
}

// LoadState reconstructs the current state of a project by reading and
// reducing all events from the JetStream event log.
func (s *Store) LoadState(ctx context.Context, project string) (*State, error) {
	logger.Debug("Loading state for project: %s", project)

	// Create a consumer filtered to this project's events
	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: nats.SubjectForProject(project),
		DeliverPolicy: jetstream.DeliverAllPolicy, // Start from beginning
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		logger.Error("Failed to create consumer for project %s: %v", project, err)
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	state := NewState(project)

	// Fetch events in batches and reduce into state.
	// Using a large batch size to minimize round trips.
	const batchSize = 1000
	malformedCount := 0
	totalEvents := 0
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			// No more messages or error - we've read everything
			logger.Debug("Finished reading events (batch fetch complete)")
			break
		}

		msgCount := 0
		for msg := range msgs.Messages() {
			msgCount++
			totalEvents++
			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				// Log malformed event and skip (but acknowledge to prevent redelivery)
				malformedCount++
				meta, _ := msg.Metadata()
				logger.Warn("Skipping malformed event (seq=%d): %v", meta.Sequence.Stream, err)
				fmt.Fprintf(os.Stderr, "Warning: Skipping malformed event (seq=%d): %v\n", meta.Sequence.Stream, err)
				msg.Ack()
				continue
			}

			// Store the message sequence as ID if not set
			if event.ID == "" {
				meta, _ := msg.Metadata()
				event.ID = fmt.Sprintf("%d", meta.Sequence.Stream)
			}

			state.Apply(event)
			msg.Ack()
		}

		logger.Debug("Processed batch: %d events", msgCount)

		if msgCount < batchSize {
			break
		}
	}

	if malformedCount > 0 {
		logger.Warn("Skipped %d malformed events while loading state", malformedCount)
		fmt.Fprintf(os.Stderr, "Warning: Skipped %d malformed events while loading state\n", malformedCount)
	}

	logger.Debug("State loaded: %d total events, %d files, %d build rounds, %d fix rounds",
		totalEvents, state.Files.Len(), state.BuildRounds, state.FixRounds)

	return state, nil
}
