package tui

import (
	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/parchlabs/sitesmith/internal/project"
)

// The TUI is composed of panels (event feed, file panel, status bar, footer)
// that share one contract: messages flow in through Update, cells flow out
// through Draw.

// Drawable renders into a rectangle of the screen buffer. The returned
// cursor is non-nil only when the component wants the terminal cursor
// placed inside its area.
type Drawable interface {
	Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor
}

// Updateable reacts to bubbletea messages.
type Updateable interface {
	Update(tea.Msg) tea.Cmd
}

// Component is the minimal contract a panel satisfies.
type Component interface {
	Drawable
	Updateable
}

// Sizable components are told their dimensions whenever the layout changes.
type Sizable interface {
	SetSize(width, height int)
}

// Stateful components re-render from the latest project snapshot.
type Stateful interface {
	SetState(state *project.State)
}

// Focusable components participate in tab focus and change their frame
// styling when active.
type Focusable interface {
	SetFocus(focused bool)
	IsFocused() bool
}

// FullComponent is a sized, stateful panel, like the status bar.
type FullComponent interface {
	Component
	Sizable
	Stateful
}

// FocusableComponent is a full panel that can hold keyboard focus, like the
// event feed and the file panel.
type FocusableComponent interface {
	FullComponent
	Focusable
}
