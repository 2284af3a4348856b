package tui

import (
	"charm.land/lipgloss/v2"

	"github.com/parchlabs/sitesmith/internal/tui/theme"
)

// Colors come from the active theme; styles below are the package-wide set
// the components share.
var (
	colorBase     = lipgloss.Color(theme.Current().BgBase)
	colorMantle   = lipgloss.Color(theme.Current().BgMantle)
	colorSurface0 = lipgloss.Color(theme.Current().BgSurface0)
	colorMuted    = lipgloss.Color(theme.Current().FgMuted)
	colorSubtle   = lipgloss.Color(theme.Current().FgSubtle)
	colorText     = lipgloss.Color(theme.Current().FgBase)

	colorPrimary   = lipgloss.Color(theme.Current().Primary)
	colorSecondary = lipgloss.Color(theme.Current().Secondary)

	colorSuccess = lipgloss.Color(theme.Current().Success)
	colorWarning = lipgloss.Color(theme.Current().Warning)
	colorError   = lipgloss.Color(theme.Current().Error)
	colorInfo    = lipgloss.Color(theme.Current().Info)
)

var (
	// Status bar styles
	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorMantle).
			Padding(0, 1)

	styleHeaderTitle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleHeaderSeparator = lipgloss.NewStyle().
				Foreground(colorMuted)

	styleHeaderInfo = lipgloss.NewStyle().
			Foreground(colorText)

	// Footer styles
	styleFooter = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorMantle).
			Padding(0, 1)

	styleFooterKey = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	styleFooterLabel = lipgloss.NewStyle().
				Foreground(colorText)

	// Panel chrome
	stylePanelTitle = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Bold(true)

	stylePanelTitleFocused = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	stylePanelRule = lipgloss.NewStyle().
			Foreground(colorSurface0)

	stylePanelRuleFocused = lipgloss.NewStyle().
				Foreground(colorPrimary)

	styleScrollIndicator = lipgloss.NewStyle().
				Foreground(colorSubtle).
				Background(colorSurface0)

	// General styles
	styleDim = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleEmptyState = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	// Feed styles
	styleStagePlan = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	styleStageBuild = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleStageFix = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	styleStageDeploy = lipgloss.NewStyle().
				Foreground(colorInfo).
				Bold(true)

	styleFeedText = lipgloss.NewStyle().
			Foreground(colorText)

	styleFeedError = lipgloss.NewStyle().
			Foreground(colorError)

	// File panel styles
	styleFileName = lipgloss.NewStyle().
			Foreground(colorText)

	styleFilePurpose = lipgloss.NewStyle().
				Foreground(colorMuted)

	styleReadyBadge = lipgloss.NewStyle().
			Foreground(colorBase).
			Background(colorSuccess).
			Padding(0, 1).
			Bold(true)

	styleDeployURL = lipgloss.NewStyle().
			Foreground(colorInfo).
			Underline(true)

	// Progress styles
	styleProgressDone = lipgloss.NewStyle().
				Foreground(colorSuccess)

	styleProgressRest = lipgloss.NewStyle().
				Foreground(colorSurface0)
)
