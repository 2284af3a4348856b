package tui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/parchlabs/sitesmith/internal/instruction"
	"github.com/parchlabs/sitesmith/internal/project"
)

// StatusBar displays project info (left) and connection status (right).
type StatusBar struct {
	width      int
	height     int
	project    string
	state      *project.State
	connected  bool
	working    bool
	ticking    bool // Whether the spinner tick chain has been started
	runKind    string
	round      int
	layoutMode LayoutMode
	spinner    Spinner
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(projectName string) *StatusBar {
	return &StatusBar{
		project:   projectName,
		connected: false,
		working:   false,
		spinner:   NewDefaultSpinner(),
	}
}

// Draw renders the status bar to the screen.
// Format: sitesmith | project | Building #N     [spinner] ● connected
func (s *StatusBar) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	if area.Dx() <= 0 || area.Dy() <= 0 {
		return nil
	}

	left := s.buildLeft()
	right := s.buildRight()

	// Calculate spacing to fill width
	totalWidth := area.Dx() - 2 // Account for padding
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)

	padding := totalWidth - leftWidth - rightWidth
	if padding < 1 {
		padding = 1
	}

	spacer := ""
	for i := 0; i < padding; i++ {
		spacer += " "
	}

	content := left + spacer + right

	DrawStyled(scr, area, styleStatusBar, content)

	return nil
}

// buildLeft builds the left side of the status bar with project info.
func (s *StatusBar) buildLeft() string {
	title := styleHeaderTitle.Render("sitesmith")
	sep := styleHeaderSeparator.Render(" | ")
	projectInfo := styleHeaderInfo.Render(s.project)

	left := title + sep + projectInfo

	if s.working {
		left += sep + styleHeaderInfo.Render(s.runLabel())
	} else if s.state != nil && s.state.Plan != "" {
		if done, total := instruction.Parse(s.state.Plan).Progress(); total > 0 {
			left += sep + styleHeaderInfo.Render(fmt.Sprintf("%d/%d pages", done, total))
		}
	}

	return left
}

// buildRight builds the right side of the status bar with connection status.
func (s *StatusBar) buildRight() string {
	var right string

	// Add spinner only when working
	if s.working {
		right += s.spinner.View() + " "
	}

	right += s.getConnectionStatus()

	return right
}

// runLabel describes the active run for the status bar.
func (s *StatusBar) runLabel() string {
	var label string
	switch s.runKind {
	case "build":
		label = "Building"
	case "fix":
		label = "Fixing"
	case "deploy":
		label = "Deploying"
	default:
		label = "Working"
	}

	if s.round > 0 {
		return fmt.Sprintf("%s #%d", label, s.round)
	}
	return label
}

// SetSize updates the component dimensions.
func (s *StatusBar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetState updates the project state.
func (s *StatusBar) SetState(state *project.State) {
	s.state = state
}

// StartRun marks a run as active so the spinner and stage label show.
func (s *StatusBar) StartRun(kind string) {
	s.working = true
	s.runKind = kind
	s.round = 0
}

// FinishRun marks the active run as done.
// The tick chain flag resets so the spinner restarts on the next run.
func (s *StatusBar) FinishRun() {
	s.working = false
	s.ticking = false
	s.runKind = ""
	s.round = 0
}

// NoteRound records the latest engine round for the stage label.
func (s *StatusBar) NoteRound(round int) {
	if round > 0 {
		s.round = round
	}
}

// SetConnectionStatus updates the connection status.
func (s *StatusBar) SetConnectionStatus(connected bool) {
	s.connected = connected
}

// SetLayoutMode updates the layout mode (desktop/compact).
func (s *StatusBar) SetLayoutMode(mode LayoutMode) {
	s.layoutMode = mode
}

// Update handles messages and spinner animation.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if !s.working {
		return nil
	}

	// Forward to spinner - it returns a cmd only for its own tick messages
	cmd := s.spinner.Update(msg)
	if cmd != nil {
		return cmd // Spinner handled its tick, returns next tick (self-sustaining chain)
	}

	// Start the tick chain once when working becomes true
	if !s.ticking {
		s.ticking = true
		return s.spinner.Tick()
	}

	return nil
}

// getConnectionStatus returns the connection status indicator.
// ● = connected, ○ = disconnected
func (s *StatusBar) getConnectionStatus() string {
	if s.layoutMode == LayoutCompact {
		// Compact mode: just show the dot
		if s.connected {
			return lipgloss.NewStyle().Foreground(colorSuccess).Render("●")
		}
		return lipgloss.NewStyle().Foreground(colorError).Render("○")
	}

	// Desktop mode: show full text
	if s.connected {
		return lipgloss.NewStyle().Foreground(colorSuccess).Render("●") + " connected"
	}
	return lipgloss.NewStyle().Foreground(colorError).Render("○") + " disconnected"
}

// truncateString truncates a string to fit within maxWidth, adding "..." if truncated.
func truncateString(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}

	width := lipgloss.Width(s)
	if width <= maxWidth {
		return s
	}

	// Simple truncation - count runes to handle multi-byte chars
	runes := []rune(s)
	targetLen := maxWidth - 3 // Reserve space for "..."

	if targetLen < 0 {
		targetLen = 0
	}

	if targetLen >= len(runes) {
		return s
	}

	return string(runes[:targetLen]) + "..."
}

// Compile-time interface checks
var _ FullComponent = (*StatusBar)(nil)
