package tui

import (
	"strings"
	"testing"

	"github.com/parchlabs/sitesmith/internal/project"
)

func TestStatusBar_RunLifecycle(t *testing.T) {
	sb := NewStatusBar("demo")

	if sb.working {
		t.Fatal("status bar should start idle")
	}

	sb.StartRun("build")
	if !sb.working {
		t.Error("StartRun should mark the bar as working")
	}

	sb.NoteRound(4)
	left := sb.buildLeft()
	if !strings.Contains(left, "Building #4") {
		t.Errorf("left side should show the stage and round, got:\n%s", left)
	}

	right := sb.buildRight()
	if right == sb.getConnectionStatus() {
		t.Error("right side should include the spinner while working")
	}

	sb.FinishRun()
	if sb.working {
		t.Error("FinishRun should mark the bar as idle")
	}
	if sb.ticking {
		t.Error("FinishRun should reset the tick chain flag")
	}
}

func TestStatusBar_RunLabels(t *testing.T) {
	tests := []struct {
		kind  string
		round int
		want  string
	}{
		{"build", 2, "Building #2"},
		{"fix", 7, "Fixing #7"},
		{"deploy", 0, "Deploying"},
		{"", 0, "Working"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			sb := NewStatusBar("demo")
			sb.StartRun(tt.kind)
			sb.NoteRound(tt.round)
			if got := sb.runLabel(); got != tt.want {
				t.Errorf("runLabel: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusBar_ShowsPlanProgressWhenIdle(t *testing.T) {
	sb := NewStatusBar("demo")

	st := project.NewState("demo")
	st.Plan = "[0] Site plan\n[Done] index.html\n[Done] about.html\n[1] contact.html"
	sb.SetState(st)

	left := sb.buildLeft()
	if !strings.Contains(left, "2/3 pages") {
		t.Errorf("idle status bar should show plan progress, got:\n%s", left)
	}

	// Progress hides while a run is active; the run label takes its place
	sb.StartRun("build")
	left = sb.buildLeft()
	if strings.Contains(left, "2/3 pages") {
		t.Error("plan progress should hide while working")
	}
}

func TestStatusBar_ConnectionStatus(t *testing.T) {
	sb := NewStatusBar("demo")
	sb.SetLayoutMode(LayoutDesktop)

	sb.SetConnectionStatus(true)
	if got := sb.getConnectionStatus(); !strings.Contains(got, "connected") {
		t.Errorf("expected connected text, got %q", got)
	}

	sb.SetConnectionStatus(false)
	if got := sb.getConnectionStatus(); !strings.Contains(got, "disconnected") {
		t.Errorf("expected disconnected text, got %q", got)
	}

	// Compact mode shows only the dot
	sb.SetLayoutMode(LayoutCompact)
	if got := sb.getConnectionStatus(); strings.Contains(got, "connected") {
		t.Errorf("compact mode should not spell out the status, got %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact width unchanged", "hello", 5, "hello"},
		{"truncates with ellipsis", "hello world", 8, "hello..."},
		{"tiny max width", "hello", 3, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateString(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}
