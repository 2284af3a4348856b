package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	lipglossv2 "charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/nats-io/nats.go"

	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/project"
	"github.com/parchlabs/sitesmith/internal/state"
	"github.com/parchlabs/sitesmith/internal/tui/theme"
)

// loadUIState loads the UI state from persistent storage.
// Returns default state if loading fails.
func loadUIState(dataDir string) *state.UIState {
	return state.Load(dataDir)
}

// App is the main Bubbletea model that manages the TUI application.
type App struct {
	// View components
	feed   *Feed
	files  *FilePanel
	status *StatusBar
	footer *Footer

	// Layout management
	layout      Layout
	layoutDirty bool

	// State
	sidebarVisible    bool // Toggle for sidebar visibility
	sidebarUserHidden bool // True if user manually hid sidebar (vs auto-hidden)
	filesFocused      bool // True when the file panel has keyboard focus
	store             *project.Store
	projectName       string
	dataDir           string // Data directory for persistent storage
	nc                *nats.Conn
	ctx               context.Context
	width             int
	height            int
	quitting          bool
	eventChan         chan project.Event // Channel for receiving NATS events
}

// NewApp creates a new TUI application wired to the project store and NATS connection.
func NewApp(ctx context.Context, store *project.Store, projectName, dataDir string, nc *nats.Conn) *App {
	// Load UI state from persistent storage
	uiState := loadUIState(dataDir)

	feed := NewFeed()
	feed.SetFocus(true)

	return &App{
		store:          store,
		projectName:    projectName,
		dataDir:        dataDir,
		nc:             nc,
		ctx:            ctx,
		sidebarVisible: uiState.Sidebar.Visible, // Load from persistent state
		feed:           feed,
		files:          NewFilePanel(),
		status:         NewStatusBar(projectName),
		footer:         NewFooter(),
		eventChan:      make(chan project.Event, 256), // Buffered channel for events
		layoutDirty:    true,                          // Calculate layout on first render
	}
}

// Init initializes the application and returns any initial commands.
// In Bubbletea v2, Init returns only tea.Cmd (not Model).
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.subscribeToEvents(),
		a.waitForEvents(),
		a.loadInitialState(),
		a.checkConnectionHealth(), // Start periodic connection health checks
	)
}

// Update handles incoming messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return a.handleKeyPress(msg)

	case tea.MouseClickMsg:
		return a.handleMouse(msg)

	case tea.MouseWheelMsg:
		return a.handleMouseWheel(msg)

	case tea.WindowSizeMsg:
		oldWidth := a.width
		a.width = msg.Width
		a.height = msg.Height
		a.layoutDirty = true

		// Handle responsive sidebar visibility based on width changes
		wasWide := oldWidth >= CompactWidthBreakpoint
		isWide := a.width >= CompactWidthBreakpoint

		if wasWide && !isWide {
			// Narrowing below threshold: auto-hide if not already user-hidden
			if !a.sidebarUserHidden && a.sidebarVisible {
				a.sidebarVisible = false
				// Don't set sidebarUserHidden - this is auto-hide
				a.saveUIState()
			}
		} else if !wasWide && isWide {
			// Widening past threshold: auto-restore only if not user-hidden
			if !a.sidebarUserHidden && !a.sidebarVisible {
				a.sidebarVisible = true
				a.saveUIState()
			}
		}

		return a, nil

	case RunStartedMsg:
		a.status.StartRun(msg.Kind)
		// Kick the status bar so the spinner tick chain starts
		return a, a.status.Update(msg)

	case RunFinishedMsg:
		a.status.FinishRun()
		// Reload state so the sidebar reflects the finished run
		return a, a.loadInitialState()

	case EngineEventMsg:
		a.status.NoteRound(msg.Round)
		return a, a.feed.Append(msg)

	case StateUpdateMsg:
		// Propagate state updates to all components
		a.status.SetState(msg.State)
		a.files.SetState(msg.State)
		a.feed.SetState(msg.State)
		return a, nil

	case EventMsg:
		// Reload state to reflect changes and wait for the next event
		return a, tea.Batch(
			a.loadInitialState(),
			a.waitForEvents(), // Recursively wait for next event
		)

	case ConnectionStatusMsg:
		// Update connection status in status bar
		a.status.SetConnectionStatus(msg.Connected)
		// Reschedule health check
		return a, a.checkConnectionHealth()
	}

	// Update status bar (for spinner animation) - always visible
	statusCmd := a.status.Update(msg)

	// Delegate remaining messages to the panels
	feedCmd := a.feed.Update(msg)
	var filesCmd tea.Cmd
	if a.layout.Mode == LayoutDesktop || a.sidebarVisible {
		filesCmd = a.files.Update(msg)
	}

	return a, tea.Batch(statusCmd, feedCmd, filesCmd)
}

// handleKeyPress processes keyboard input.
// Priority: global keys → focus switching → focused component scrolling.
func (a *App) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		a.quitting = true
		return a, tea.Quit

	case "s":
		return a, a.handleSidebarToggle()

	case "tab":
		a.toggleFocus()
		return a, nil
	}

	// Forward scroll keys to the focused panel's viewport
	if a.filesFocused {
		return a, a.files.Update(msg)
	}
	return a, a.feed.Update(msg)
}

// toggleFocus switches keyboard focus between the feed and the file panel.
func (a *App) toggleFocus() {
	if !a.sidebarVisible && a.layout.Mode == LayoutCompact {
		// Nothing to switch to
		a.setFocus(false)
		return
	}
	a.setFocus(!a.filesFocused)
}

// setFocus applies the focus flag to both panels.
func (a *App) setFocus(filesFocused bool) {
	a.filesFocused = filesFocused
	a.feed.SetFocus(!filesFocused)
	a.files.SetFocus(filesFocused)
}

// handleSidebarToggle toggles the sidebar visibility and manages focus and persistence.
func (a *App) handleSidebarToggle() tea.Cmd {
	// Toggle visibility
	a.sidebarVisible = !a.sidebarVisible

	// Set user-hidden flag when manually toggling
	a.sidebarUserHidden = !a.sidebarVisible

	// Persist state
	a.saveUIState()

	// Move focus to the feed if hiding the sidebar while it has focus
	if !a.sidebarVisible && a.filesFocused {
		a.setFocus(false)
	}

	// Mark layout dirty to trigger recalculation
	a.layoutDirty = true

	return nil
}

// saveUIState persists the current UI state to disk.
func (a *App) saveUIState() {
	uiState := loadUIState(a.dataDir)
	uiState.Sidebar.Visible = a.sidebarVisible
	if err := state.Save(a.dataDir, uiState); err != nil {
		logger.Warn("failed to save UI state: %v", err)
	}
}

// handleMouse processes mouse click events using coordinate-based hit detection.
func (a *App) handleMouse(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()

	// Only handle left mouse button
	if mouse.Button != tea.MouseLeft {
		return a, nil
	}

	// Footer buttons
	switch a.footer.ActionAtPosition(mouse.X, mouse.Y) {
	case FooterActionQuit:
		a.quitting = true
		return a, tea.Quit
	case FooterActionSidebar:
		return a, a.handleSidebarToggle()
	case FooterActionFocus:
		a.toggleFocus()
		return a, nil
	}

	// Clicking a pane focuses it
	if inArea(a.filesArea(), mouse.X, mouse.Y) {
		a.setFocus(true)
	} else if inArea(a.layout.Main, mouse.X, mouse.Y) {
		a.setFocus(false)
	}

	return a, nil
}

// handleMouseWheel processes mouse wheel events for viewport scrolling.
// Scrolls the viewport under the cursor regardless of which pane has keyboard focus.
func (a *App) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()

	const scrollLines = 3

	var lines int
	switch mouse.Button {
	case tea.MouseWheelUp:
		lines = -scrollLines
	case tea.MouseWheelDown:
		lines = scrollLines
	default:
		return a, nil
	}

	// Scroll the viewport under the cursor
	if inArea(a.filesArea(), mouse.X, mouse.Y) {
		a.files.ScrollViewport(lines)
		return a, nil
	}

	if inArea(a.layout.Main, mouse.X, mouse.Y) {
		a.feed.ScrollViewport(lines)
	}

	return a, nil
}

// inArea reports whether the coordinates fall inside the rectangle.
func inArea(area uv.Rectangle, x, y int) bool {
	return x >= area.Min.X && x < area.Max.X && y >= area.Min.Y && y < area.Max.Y
}

// filesArea returns the rectangle the file panel currently occupies,
// or an empty rectangle when the sidebar is hidden.
func (a *App) filesArea() uv.Rectangle {
	if a.layout.Mode == LayoutDesktop {
		return a.layout.Sidebar
	}
	if a.sidebarVisible {
		return a.compactSidebarRect()
	}
	return uv.Rectangle{}
}

// compactSidebarRect computes the overlay rectangle for the sidebar in compact mode.
func (a *App) compactSidebarRect() uv.Rectangle {
	sidebarWidth := SidebarWidthDesktop
	if a.layout.Main.Dx()/2 < sidebarWidth {
		sidebarWidth = a.layout.Main.Dx() / 2
	}
	return uv.Rect(
		a.layout.Main.Max.X-sidebarWidth,
		a.layout.Main.Min.Y,
		sidebarWidth,
		a.layout.Main.Dy(),
	)
}

// View renders the current view. In Bubbletea v2, this returns tea.View
// with display options like AltScreen and MouseMode.
func (a *App) View() tea.View {
	var view tea.View
	view.AltScreen = true                    // Full-screen mode
	view.MouseMode = tea.MouseModeCellMotion // Enable mouse events

	if a.quitting {
		// Return minimal view when quitting - exit alt screen for proper terminal restoration
		view.AltScreen = false
		view.MouseMode = 0
		view.Content = lipglossv2.NewLayer("")
		return view
	}

	// Recalculate layout if needed
	if a.layoutDirty {
		a.layout = CalculateLayout(a.width, a.height, !a.sidebarVisible)
		a.propagateSizes()
		a.layoutDirty = false
	}

	// Create screen buffer for drawing
	canvas := uv.NewScreenBuffer(a.width, a.height)

	// Draw all components to canvas
	view.Cursor = a.Draw(canvas, canvas.Bounds())

	// Render canvas to string
	content := canvas.Render()

	view.Content = lipglossv2.NewLayer(content)

	// Set global background color for the entire terminal
	view.BackgroundColor = theme.HexToColor(theme.Current().BgCrust)

	return view
}

// Draw renders all components to the screen buffer.
func (a *App) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	cursor := a.feed.Draw(scr, a.layout.Main)
	a.status.Draw(scr, a.layout.Status)
	a.footer.Draw(scr, a.layout.Footer)

	// Draw sidebar based on mode
	if a.layout.Mode == LayoutDesktop {
		a.files.Draw(scr, a.layout.Sidebar)
	} else if a.sidebarVisible {
		a.files.Draw(scr, a.compactSidebarRect())
	}

	return cursor
}

// propagateSizes pushes the current layout dimensions into all components.
func (a *App) propagateSizes() {
	a.feed.SetSize(a.layout.Main.Dx(), a.layout.Main.Dy())
	a.status.SetSize(a.layout.Status.Dx(), a.layout.Status.Dy())
	a.footer.SetSize(a.layout.Footer.Dx(), a.layout.Footer.Dy())
	a.status.SetLayoutMode(a.layout.Mode)
	a.footer.SetLayoutMode(a.layout.Mode)

	if a.layout.Mode == LayoutDesktop {
		a.files.SetSize(a.layout.Sidebar.Dx(), a.layout.Sidebar.Dy())
	} else if a.sidebarVisible {
		rect := a.compactSidebarRect()
		a.files.SetSize(rect.Dx(), rect.Dy())
	}
}

// waitForEvents listens on the event channel and converts events to messages.
// This command recursively calls itself to continuously receive events.
func (a *App) waitForEvents() tea.Cmd {
	return func() tea.Msg {
		// Block waiting for next event
		event, ok := <-a.eventChan
		if !ok {
			// Channel closed, stop receiving
			return nil
		}
		return EventMsg{Event: event}
	}
}

// subscribeToEvents subscribes to NATS events for this project.
// This runs in a managed goroutine and sends messages to the Update loop.
func (a *App) subscribeToEvents() tea.Cmd {
	return func() tea.Msg {
		// Subscribe to all events for this project using wildcard pattern
		subject := fmt.Sprintf("sitesmith.%s.>", a.projectName)

		// Create subscription that forwards events to the event channel
		sub, err := a.nc.Subscribe(subject, func(msg *nats.Msg) {
			// Parse event from message data
			var event project.Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// Skip malformed events
				return
			}

			// Send to channel (non-blocking)
			select {
			case a.eventChan <- event:
			default:
				// Channel full, drop event
			}
		})

		if err != nil {
			// Return error message
			return fmt.Errorf("failed to subscribe to events: %w", err)
		}

		// Clean up when context is cancelled
		<-a.ctx.Done()
		_ = sub.Unsubscribe()
		close(a.eventChan)

		return nil
	}
}

// loadInitialState loads the current project state from the event log.
func (a *App) loadInitialState() tea.Cmd {
	return func() tea.Msg {
		state, err := a.store.LoadState(a.ctx, a.projectName)
		if err != nil {
			logger.Warn("failed to load project state: %v", err)
			return nil
		}
		return StateUpdateMsg{State: state}
	}
}

// checkConnectionHealth monitors NATS connection status and sends updates.
// It checks the connection every 2 seconds and sends a ConnectionStatusMsg
// when the status changes.
func (a *App) checkConnectionHealth() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		connected := a.nc != nil && a.nc.IsConnected()
		return ConnectionStatusMsg{Connected: connected}
	})
}

// Custom message types for the TUI

// EngineEventMsg mirrors an engine progress event for display in the feed.
// The orchestrator sends these directly into the program, so the feed keeps
// working even when the NATS event flow lags.
type EngineEventMsg struct {
	Stage   string
	Round   int
	Action  string
	Target  string
	Done    int
	Total   int
	Message string
	Diff    string
	Err     string
}

// RunStartedMsg is sent by the orchestrator when a build, fix, or deploy run begins.
type RunStartedMsg struct {
	Kind string
}

// RunFinishedMsg is sent by the orchestrator when the active run ends.
type RunFinishedMsg struct {
	Err string
}

// StateUpdateMsg carries a freshly reduced project state.
type StateUpdateMsg struct {
	State *project.State
}

// EventMsg wraps a raw project event received over NATS.
type EventMsg struct {
	Event project.Event
}

// ConnectionStatusMsg is sent when NATS connection status changes.
type ConnectionStatusMsg struct {
	Connected bool
}
