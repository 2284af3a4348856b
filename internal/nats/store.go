package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Subject pattern constants and helpers
const (
	streamName = "sitesmith_events"

	// Event types
	EventTypeFile   = "file"
	EventTypeBuild  = "build"
	EventTypeFix    = "fix"
	EventTypeDeploy = "deploy"
)

// SubjectForProject returns the wildcard subject pattern for all events in a project.
// Example: "sitesmith.myproject.>"
func SubjectForProject(project string) string {
	return fmt.Sprintf("sitesmith.%s.>", project)
}

// SubjectForEvent returns the specific subject for an event type in a project.
// Example: "sitesmith.myproject.file"
func SubjectForEvent(project, eventType string) string {
	return fmt.Sprintf("sitesmith.%s.%s", project, eventType)
}

// SetupStream creates or updates the JetStream stream for sitesmith events.
// The stream captures all events for all projects with 30-day retention.
// Subject pattern: sitesmith.> matches all projects and event types.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"sitesmith.>"}, // Match all sitesmith events
		Storage:  jetstream.FileStorage,
		MaxAge:   30 * 24 * time.Hour, // 30 day retention
	})
}
