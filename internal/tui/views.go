package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/caevv/compactcols/internal/board"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	if m.viewMode == ViewModeDetail {
		return m.renderDetailView()
	}

	sections := []string{
		m.renderHeader("Build Status"),
		m.renderJobList(),
		m.renderHelpBar("q: quit  │  ↑/↓: navigate  │  enter: details  │  r: refresh  │  t: trigger"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(title string) string {
	subtitle := fmt.Sprintf("Last updated: %s", m.lastUpdate.Format("15:04:05"))
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(title),
		"  ",
		subtitleStyle.Render(subtitle),
	)
	return headerStyle.Render(header)
}

// renderJobList renders every job with its columns underneath.
func (m Model) renderJobList() string {
	if len(m.jobs) == 0 {
		return jobListStyle.Render(subtitleStyle.Render("No jobs configured or recorded"))
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Jobs"), "")

	for i, job := range m.jobs {
		rows = append(rows, m.renderJobRow(job, i == m.selectedJob))
		for _, v := range job.Views {
			rows = append(rows, "     "+renderViewLine(v))
		}
	}

	return jobListStyle.Render(strings.Join(rows, "\n"))
}

// renderJobRow renders the heading line of a job.
func (m Model) renderJobRow(job JobState, selected bool) string {
	cursor := " "
	if selected {
		cursor = iconArrow
	}

	state := keyStyle.Render(iconIdle + " idle   ")
	if job.Running {
		state = statusRunningStyle.Render(iconRunning + " running")
	}

	next := "-"
	if job.Scheduled {
		next = formatTimeFromNow(job.NextRun, m.now())
	}

	row := fmt.Sprintf("%s  %-22s  %s  %s",
		cursor,
		truncate(job.ID, 22),
		state,
		keyStyle.Render("next: "+next),
	)

	if selected {
		return jobItemSelectedStyle.Render(row)
	}
	return jobItemStyle.Render(row)
}

// renderViewLine draws a column as one line of colored cells.
func renderViewLine(v *board.View) string {
	name := keyStyle.Render(fmt.Sprintf("%-12s", truncate(v.Column, 12)))
	if v.Empty {
		return name + " " + keyStyle.Render("-")
	}
	cells := make([]string, 0, len(v.Cells))
	for _, c := range v.Cells {
		cells = append(cells, cellStyle(c).Render(fmt.Sprintf("#%d %s", c.Number, c.TimeAgo)))
	}
	return name + " " + strings.Join(cells, "  ")
}

func (m Model) renderHelpBar(help string) string {
	if m.errorMessage != "" {
		return statusBarStyle.Render(statusErrorStyle.Render("Error: " + m.errorMessage))
	}
	if m.notice != "" {
		help = m.notice + "  │  " + help
	}
	return statusBarStyle.Render(help)
}

// renderDetailView shows every column of the selected job with the tooltip
// of each cell.
func (m Model) renderDetailView() string {
	if m.selectedJob >= len(m.jobs) {
		return "Invalid job selection"
	}

	job := m.jobs[m.selectedJob]
	sections := []string{m.renderHeader("Build Status - " + job.ID)}

	var info []string
	info = append(info, titleStyle.Render("Job"), "")
	if cfgJob, ok := m.config.Job(job.ID); ok {
		info = append(info, fmt.Sprintf("%s %s", keyStyle.Render("Command:"), valueStyle.Render(truncate(cfgJob.Command.String(), 60))))
		info = append(info, fmt.Sprintf("%s %s", keyStyle.Render("Schedule:"), valueStyle.Render(job.Schedule)))
	} else {
		info = append(info, subtitleStyle.Render("Recorded builds only"))
	}
	if job.Scheduled {
		info = append(info, fmt.Sprintf("%s %s", keyStyle.Render("Next Run:"), valueStyle.Render(formatTimeFromNow(job.NextRun, m.now()))))
	}
	sections = append(sections, jobListStyle.Render(strings.Join(info, "\n")))

	for _, v := range job.Views {
		var lines []string
		lines = append(lines, titleStyle.Render(fmt.Sprintf("%s (%s)", v.Column, v.Locale)), "")
		if v.Empty {
			lines = append(lines, subtitleStyle.Render("No builds"))
		}
		for _, c := range v.Cells {
			lines = append(lines, fmt.Sprintf("%s %s",
				cellStyle(c).Render(fmt.Sprintf("#%d %s", c.Number, c.Status)),
				keyStyle.Render(c.TimeAgo),
			))
			for _, l := range c.Tooltip.Lines() {
				if l != "" {
					lines = append(lines, "    "+iconBullet+" "+l)
				}
			}
		}
		sections = append(sections, detailColumnStyle.Render(strings.Join(lines, "\n")))
	}

	sections = append(sections, m.renderHelpBar("esc: back  │  q: quit  │  r: refresh  │  t: trigger"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// formatTimeFromNow formats t relative to now.
func formatTimeFromNow(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	duration := t.Sub(now)

	if duration < 0 {
		return "now"
	}
	if duration < time.Minute {
		return fmt.Sprintf("in %ds", int(duration.Seconds()))
	}
	if duration < time.Hour {
		return fmt.Sprintf("in %dm", int(duration.Minutes()))
	}
	if duration < 24*time.Hour {
		return fmt.Sprintf("in %dh %dm",
			int(duration.Hours()),
			int(duration.Minutes())%60,
		)
	}
	return fmt.Sprintf("in %dd", int(duration.Hours()/24))
}

// truncate truncates a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
