package tui

import (
	"testing"
)

// TestCalculateLayout_Minimum tests layout at 80x24 (minimum terminal size)
func TestCalculateLayout_Minimum(t *testing.T) {
	width, height := 80, 24
	layout := CalculateLayout(width, height, false)

	// Should be compact mode
	if layout.Mode != LayoutCompact {
		t.Errorf("Expected LayoutCompact mode at %dx%d, got %v", width, height, layout.Mode)
	}

	// Verify area dimensions
	if layout.Area.Dx() != width || layout.Area.Dy() != height {
		t.Errorf("Area size mismatch: got %dx%d, want %dx%d",
			layout.Area.Dx(), layout.Area.Dy(), width, height)
	}

	// Verify status height
	if layout.Status.Dy() != StatusHeight {
		t.Errorf("Status height mismatch: got %d, want %d", layout.Status.Dy(), StatusHeight)
	}

	// Verify footer height
	if layout.Footer.Dy() != FooterHeight {
		t.Errorf("Footer height mismatch: got %d, want %d", layout.Footer.Dy(), FooterHeight)
	}

	// In compact mode, sidebar should be empty (no dedicated area)
	if layout.Sidebar.Dx() > 0 || layout.Sidebar.Dy() > 0 {
		t.Errorf("Sidebar should be empty in compact mode, got %dx%d",
			layout.Sidebar.Dx(), layout.Sidebar.Dy())
	}

	// Main should occupy full content width
	if layout.Main.Dx() != width {
		t.Errorf("Main width should equal total width in compact mode: got %d, want %d",
			layout.Main.Dx(), width)
	}

	// Verify content area is properly sized
	expectedContentHeight := height - StatusHeight - FooterHeight
	if layout.Content.Dy() != expectedContentHeight {
		t.Errorf("Content height mismatch: got %d, want %d",
			layout.Content.Dy(), expectedContentHeight)
	}
}

// TestCalculateLayout_Standard tests layout at 120x40 (standard terminal size)
func TestCalculateLayout_Standard(t *testing.T) {
	width, height := 120, 40
	layout := CalculateLayout(width, height, false)

	// Should be desktop mode
	if layout.Mode != LayoutDesktop {
		t.Errorf("Expected LayoutDesktop mode at %dx%d, got %v", width, height, layout.Mode)
	}

	// In desktop mode, sidebar should have width
	if layout.Sidebar.Dx() <= 0 {
		t.Error("Sidebar should have width > 0 in desktop mode")
	}

	// Sidebar width should be reasonable
	if layout.Sidebar.Dx() > SidebarWidthDesktop {
		t.Errorf("Sidebar width %d exceeds maximum %d", layout.Sidebar.Dx(), SidebarWidthDesktop)
	}

	// Main + gap (1) + Sidebar should equal content width
	totalContentWidth := layout.Main.Dx() + 1 + layout.Sidebar.Dx()
	if totalContentWidth != layout.Content.Dx() {
		t.Errorf("Main + gap + Sidebar width (%d) doesn't equal content width (%d)",
			totalContentWidth, layout.Content.Dx())
	}

	// Main and Sidebar should have same height as content
	if layout.Main.Dy() != layout.Content.Dy() {
		t.Errorf("Main height (%d) doesn't match content height (%d)",
			layout.Main.Dy(), layout.Content.Dy())
	}
	if layout.Sidebar.Dy() != layout.Content.Dy() {
		t.Errorf("Sidebar height (%d) doesn't match content height (%d)",
			layout.Sidebar.Dy(), layout.Content.Dy())
	}
}

// TestCalculateLayout_HideSidebar verifies the sidebar flag forces compact mode
// even on a desktop-sized terminal.
func TestCalculateLayout_HideSidebar(t *testing.T) {
	layout := CalculateLayout(200, 60, true)

	if layout.Mode != LayoutCompact {
		t.Errorf("Expected LayoutCompact with hidden sidebar, got %v", layout.Mode)
	}
	if layout.Sidebar.Dx() > 0 {
		t.Errorf("Sidebar should be empty when hidden, got width %d", layout.Sidebar.Dx())
	}
	if layout.Main.Dx() != 200 {
		t.Errorf("Main should span full width when sidebar hidden: got %d, want 200", layout.Main.Dx())
	}
}

// TestCalculateLayout_CompactModeTransition tests transition at breakpoints
func TestCalculateLayout_CompactModeTransition(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		wantMode LayoutMode
	}{
		{
			name:     "just below width breakpoint",
			width:    CompactWidthBreakpoint - 1,
			height:   50,
			wantMode: LayoutCompact,
		},
		{
			name:     "just at width breakpoint",
			width:    CompactWidthBreakpoint,
			height:   50,
			wantMode: LayoutDesktop,
		},
		{
			name:     "just below height breakpoint",
			width:    150,
			height:   CompactHeightBreakpoint - 1,
			wantMode: LayoutCompact,
		},
		{
			name:     "just at height breakpoint",
			width:    150,
			height:   CompactHeightBreakpoint,
			wantMode: LayoutDesktop,
		},
		{
			name:     "both below breakpoints",
			width:    CompactWidthBreakpoint - 1,
			height:   CompactHeightBreakpoint - 1,
			wantMode: LayoutCompact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := CalculateLayout(tt.width, tt.height, false)
			if layout.Mode != tt.wantMode {
				t.Errorf("Mode mismatch at %dx%d: got %v, want %v",
					tt.width, tt.height, layout.Mode, tt.wantMode)
			}
		})
	}
}

// TestCalculateLayout_VerticalSections verifies all vertical sections add up
// to the full terminal height.
func TestCalculateLayout_VerticalSections(t *testing.T) {
	sizes := []struct {
		width  int
		height int
	}{
		{80, 24},
		{120, 40},
		{200, 60},
	}

	for _, size := range sizes {
		layout := CalculateLayout(size.width, size.height, false)

		totalHeight := layout.Content.Dy() + layout.Status.Dy() + layout.Footer.Dy()
		if totalHeight != size.height {
			t.Errorf("Vertical sections at %dx%d don't add up: got %d, want %d",
				size.width, size.height, totalHeight, size.height)
		}
	}
}
