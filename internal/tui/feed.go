package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/parchlabs/sitesmith/internal/project"
)

// Feed displays the scrollable run history: plan narratives, per-round
// generation progress, repair actions with diffs, and deploy results.
type Feed struct {
	viewport   viewport.Model
	items      []EngineEventMsg
	width      int
	height     int
	focused    bool
	autoScroll bool
}

// Compile-time interface check
var _ FocusableComponent = (*Feed)(nil)

// NewFeed creates a new Feed component.
func NewFeed() *Feed {
	return &Feed{
		viewport:   viewport.New(),
		autoScroll: true,
	}
}

// Draw renders the feed to the screen buffer.
func (f *Feed) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	inner := DrawPanel(scr, area, "Activity", f.focused)

	DrawText(scr, inner, f.viewport.View())

	if f.viewport.TotalLineCount() > f.viewport.Height() {
		DrawScrollIndicator(scr, area, f.viewport.ScrollPercent())
	}

	return nil
}

// Update handles messages for the feed; scroll keys go to the viewport.
func (f *Feed) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.viewport, cmd = f.viewport.Update(msg)
	// Any manual scroll turns sticky-bottom off until the next append
	if f.viewport.AtBottom() {
		f.autoScroll = true
	} else {
		f.autoScroll = false
	}
	return cmd
}

// Append adds an engine event to the feed and re-renders.
func (f *Feed) Append(ev EngineEventMsg) tea.Cmd {
	f.items = append(f.items, ev)
	f.updateContent()
	f.autoScroll = true
	f.viewport.GotoBottom()
	return nil
}

// SetSize updates the component dimensions.
func (f *Feed) SetSize(width, height int) {
	f.width = width
	f.height = height
	f.viewport.SetWidth(width)
	f.viewport.SetHeight(height - 1) // Panel title row
	f.updateContent()
	if f.autoScroll {
		f.viewport.GotoBottom()
	}
}

// SetState satisfies FullComponent; the feed renders events, not state.
func (f *Feed) SetState(state *project.State) {}

// ScrollViewport scrolls the feed by the given number of lines.
// Positive values scroll down, negative values scroll up.
func (f *Feed) ScrollViewport(lines int) {
	f.viewport.SetYOffset(f.viewport.YOffset() + lines)
	// Disable auto-scroll when the user scrolls up
	if lines < 0 {
		f.autoScroll = false
	} else if f.viewport.AtBottom() {
		f.autoScroll = true
	}
}

// SetFocus updates the focus state.
func (f *Feed) SetFocus(focused bool) {
	f.focused = focused
}

// IsFocused returns whether the feed is focused.
func (f *Feed) IsFocused() bool {
	return f.focused
}

// updateContent rebuilds the viewport content from the accumulated events.
func (f *Feed) updateContent() {
	if len(f.items) == 0 {
		f.viewport.SetContent(styleEmptyState.Render("Waiting for a build to start"))
		return
	}

	var b strings.Builder
	for i, ev := range f.items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.renderItem(ev))
	}
	f.viewport.SetContent(b.String())
}

// renderItem renders one engine event: a stage-tagged line, the plan
// narrative as markdown, and diffs highlighted.
func (f *Feed) renderItem(ev EngineEventMsg) string {
	var b strings.Builder

	b.WriteString(stageLabel(ev.Stage))

	if ev.Round > 0 {
		b.WriteString(styleDim.Render(fmt.Sprintf(" #%d", ev.Round)))
	}

	if ev.Err != "" {
		b.WriteString(" ")
		b.WriteString(styleFeedError.Render(ev.Err))
		return b.String()
	}

	if ev.Message != "" {
		b.WriteString(" ")
		if ev.Stage == "plan" && strings.Contains(ev.Message, "\n") {
			// Plan narratives are multiline; render them as markdown below
			// the stage tag.
			b.WriteString("\n")
			b.WriteString(renderMarkdown(ev.Message, f.width))
		} else {
			b.WriteString(styleFeedText.Render(ev.Message))
		}
	}

	if ev.Total > 0 {
		b.WriteString(styleDim.Render(fmt.Sprintf("  [%d/%d]", ev.Done, ev.Total)))
	}

	if ev.Diff != "" {
		b.WriteString("\n")
		b.WriteString(highlightDiff(ev.Diff))
	}

	return b.String()
}

// stageLabel renders the colored stage tag for a feed line.
func stageLabel(stage string) string {
	var style lipgloss.Style
	switch stage {
	case "plan":
		style = styleStagePlan
	case "build":
		style = styleStageBuild
	case "fix":
		style = styleStageFix
	case "deploy":
		style = styleStageDeploy
	default:
		style = styleDim
	}
	return style.Render(fmt.Sprintf("[%s]", stage))
}
