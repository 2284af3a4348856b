package tui

import uv "github.com/charmbracelet/ultraviolet"

// Layout breakpoints and dimensions
const (
	// CompactWidthBreakpoint is the minimum width for desktop mode
	CompactWidthBreakpoint = 100
	// CompactHeightBreakpoint is the minimum height for desktop mode
	CompactHeightBreakpoint = 25
	// SidebarWidthDesktop caps the file panel width in desktop mode
	SidebarWidthDesktop = 45
	// StatusHeight is the height of the status bar in rows
	StatusHeight = 1
	// FooterHeight is the height of the footer in rows
	FooterHeight = 1
)

// LayoutMode represents the layout mode based on terminal size
type LayoutMode int

const (
	// LayoutDesktop shows the event feed beside the file panel
	LayoutDesktop LayoutMode = iota
	// LayoutCompact gives the whole content area to the event feed
	LayoutCompact
)

// Layout defines the rectangular regions for all UI components
type Layout struct {
	Mode    LayoutMode
	Area    uv.Rectangle
	Content uv.Rectangle
	Main    uv.Rectangle // Event feed
	Sidebar uv.Rectangle // File panel, empty in compact mode
	Status  uv.Rectangle
	Footer  uv.Rectangle
}

// IsCompact returns true if the layout is in compact mode
func (l Layout) IsCompact() bool {
	return l.Mode == LayoutCompact
}

// CalculateLayout computes the component rectangles for a terminal of the
// given size. The file panel only gets a column of its own when the terminal
// clears both breakpoints and the sidebar isn't hidden.
func CalculateLayout(width, height int, hideSidebar bool) Layout {
	mode := LayoutDesktop
	if width < CompactWidthBreakpoint || height < CompactHeightBreakpoint || hideSidebar {
		mode = LayoutCompact
	}

	area := uv.Rectangle{Max: uv.Position{X: width, Y: height}}

	// The status bar and footer claim the bottom rows; everything above is
	// content.
	content, chrome := uv.SplitVertical(area, uv.Fixed(area.Dy()-StatusHeight-FooterHeight))
	status, footer := uv.SplitVertical(chrome, uv.Fixed(StatusHeight))

	layout := Layout{
		Mode:    mode,
		Area:    area,
		Content: content,
		Main:    content,
		Status:  status,
		Footer:  footer,
	}
	if mode == LayoutCompact {
		return layout
	}

	// Desktop mode: the file panel takes a column on the right, capped so
	// the feed keeps at least two thirds of the width.
	panelWidth := min(SidebarWidthDesktop, content.Dx()/3)
	layout.Main, layout.Sidebar = uv.SplitHorizontal(content, uv.Fixed(content.Dx()-panelWidth))
	layout.Main.Max.X-- // one blank column between the panels
	return layout
}
