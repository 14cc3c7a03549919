// Package tui provides a terminal view of the status columns.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/caevv/compactcols/internal/column"
)

var (
	// Color palette
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorError     = lipgloss.Color("#EF4444") // Red
	colorInfo      = lipgloss.Color("#3B82F6") // Blue
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorBorder    = lipgloss.Color("#374151") // Dark gray
	colorHighlight = lipgloss.Color("#8B5CF6") // Light purple

	// Header style
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorBorder).
			Padding(0, 1).
			MarginBottom(1)

	// Status bar style
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1).
			MarginTop(1)

	// Job list styles
	jobListStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2).
			MarginBottom(1)

	jobItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	jobItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true).
				Padding(0, 1)

	statusRunningStyle = lipgloss.NewStyle().
				Foreground(colorInfo).
				Bold(true)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorError).
				Bold(true)

	// Detail view column panel
	detailColumnStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Padding(1, 2)

	// Title styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Bold(true)
)

// Named CSS colors used by the categories, as terminal colors.
var cssColors = map[string]lipgloss.Color{
	"orange": lipgloss.Color("#FFA500"),
	"gray":   lipgloss.Color("#808080"),
}

// cellStyle draws a cell the way the web column does: category color, bold
// for the latest build and an underline when colorblind hints are on.
func cellStyle(c column.Cell) lipgloss.Style {
	color, ok := cssColors[c.Color]
	if !ok {
		color = lipgloss.Color(c.Color)
	}
	style := lipgloss.NewStyle().Foreground(color)
	if c.FontWeight == "bold" {
		style = style.Bold(true)
	}
	if c.Underline != "" && !strings.HasPrefix(c.Underline, "0px") {
		style = style.Underline(true)
		if strings.Contains(c.Underline, "dashed") {
			style = style.Italic(true)
		}
	}
	return style
}

const (
	iconRunning = "⟳"
	iconIdle    = "⏸"
	iconArrow   = ">"
	iconBullet  = "•"
)
