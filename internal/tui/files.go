package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/parchlabs/sitesmith/internal/instruction"
	"github.com/parchlabs/sitesmith/internal/project"
)

// FilePanel lists the project's generated files with plan progress and
// deploy status.
type FilePanel struct {
	viewport viewport.Model
	state    *project.State
	width    int
	height   int
	focused  bool
}

// Compile-time interface check
var _ FocusableComponent = (*FilePanel)(nil)

// NewFilePanel creates a new FilePanel component.
func NewFilePanel() *FilePanel {
	return &FilePanel{
		viewport: viewport.New(),
	}
}

// Draw renders the file panel to the screen buffer.
func (p *FilePanel) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	title := "Files"
	if p.state != nil && p.state.Files != nil {
		title = fmt.Sprintf("Files (%d)", p.state.Files.Len())
	}
	inner := DrawPanel(scr, area, title, p.focused)

	DrawText(scr, inner, p.viewport.View())

	if p.viewport.TotalLineCount() > p.viewport.Height() {
		DrawScrollIndicator(scr, area, p.viewport.ScrollPercent())
	}

	return nil
}

// Update handles messages for the file panel.
func (p *FilePanel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// SetSize updates the component dimensions.
func (p *FilePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.viewport.SetWidth(width)
	p.viewport.SetHeight(height - 1) // Panel title row
	p.updateContent()
}

// SetState updates the panel with new project state.
func (p *FilePanel) SetState(state *project.State) {
	p.state = state
	p.updateContent()
}

// ScrollViewport scrolls the panel by the given number of lines.
func (p *FilePanel) ScrollViewport(lines int) {
	p.viewport.SetYOffset(p.viewport.YOffset() + lines)
}

// SetFocus updates the focus state.
func (p *FilePanel) SetFocus(focused bool) {
	p.focused = focused
}

// IsFocused returns whether the file panel is focused.
func (p *FilePanel) IsFocused() bool {
	return p.focused
}

// updateContent rebuilds the viewport content from the current state.
func (p *FilePanel) updateContent() {
	if p.state == nil || p.state.Files == nil || p.state.Files.Len() == 0 {
		p.viewport.SetContent(styleEmptyState.Render("No files yet"))
		return
	}

	var b strings.Builder

	if header := p.renderHeader(); header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}

	for _, f := range p.state.Files.Files() {
		b.WriteString(styleFileName.Render(truncateString(f.Name, p.width)))
		b.WriteString("\n")
		if f.UsedFor != "" {
			b.WriteString(styleFilePurpose.Render(truncateString("  "+f.UsedFor, p.width)))
			b.WriteString("\n")
		}
	}

	p.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
}

// renderHeader renders plan progress and deploy status above the file list.
func (p *FilePanel) renderHeader() string {
	var parts []string

	if p.state.Plan != "" {
		done, total := instruction.Parse(p.state.Plan).Progress()
		if total > 0 {
			parts = append(parts, progressBar(done, total, p.width-10)+
				styleDim.Render(fmt.Sprintf(" %d/%d", done, total)))
		}
	}

	if p.state.ReadyToDeploy {
		parts = append(parts, styleReadyBadge.Render("ready to deploy"))
	}

	if p.state.DeployURL != "" {
		parts = append(parts, styleDeployURL.Render(truncateString(p.state.DeployURL, p.width)))
	}

	return strings.Join(parts, "\n")
}

// progressBar renders a fixed-width bar of done/total.
func progressBar(done, total, width int) string {
	if width < 4 {
		width = 4
	}
	if total <= 0 {
		total = 1
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}

	return styleProgressDone.Render(strings.Repeat("█", filled)) +
		styleProgressRest.Render(strings.Repeat("░", width-filled))
}
