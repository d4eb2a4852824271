package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `
███████╗██████╗  ██████╗ ███╗   ███╗███████╗██████╗ ██╗
██╔════╝██╔══██╗██╔═══██╗████╗ ████║██╔════╝██╔══██╗██║
█████╗  ██████╔╝██║   ██║██╔████╔██║█████╗  ██║  ██║██║
██╔══╝  ██╔══██╗██║   ██║██║╚██╔╝██║██╔══╝  ██║  ██║██║
███████╗██║  ██║╚██████╔╝██║ ╚═╝ ██║███████╗██████╔╝███████╗
╚══════╝╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝╚══════╝╚═════╝ ╚══════╝`

// View renders the entire TUI
func (m *Model) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, logoStyle.Width(m.width).Render(logo))

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderLeftColumn(),
		"  ",
		m.renderRightColumn(),
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help • q to quit"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) columnWidth() int {
	return (m.width - 4) / 2
}

func (m *Model) renderLeftColumn() string {
	width := m.columnWidth()
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderAlbumPanel(width),
		m.renderActiveFilesPanel(width),
		m.renderFinishedPanel(width),
	)
}

func (m *Model) renderRightColumn() string {
	width := m.columnWidth()
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderPacingPanel(width),
		m.renderLogsPanel(width),
	)
}

func label(name, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(name), statsValueStyle.Render(value))
}

// renderAlbumPanel shows the album being processed and its stage
func (m *Model) renderAlbumPanel(width int) string {
	title := titleStyle.Render(" ALBUM ")

	if m.albumURL == "" {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Waiting for the first album...")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	albumTitle := m.albumTitle
	if albumTitle == "" {
		albumTitle = m.spinner.View()
	}

	lines := []string{
		label("Album:", fmt.Sprintf("%d/%d", m.albumIndex, m.albumTotal)),
		label("Title:", albumTitle),
		label("URL:", truncate(m.albumURL, width-12)),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Stage:"), StageStyle(m.stage).Render(m.stage.String())),
	}
	if m.albumFiles > 0 {
		done := len(m.filesIn(FileCompleted, FileSkipped, FileFailed))
		lines = append(lines, label("Files:", fmt.Sprintf("%d/%d", done, m.albumFiles)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

// renderStatsPanel renders the session statistics
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" SESSION ")

	stats := []string{
		label("Session Time:", formatDuration(time.Since(m.sessionStartTime))),
		label("Albums:", fmt.Sprintf("%d archived, %d failed", m.albumsDone, m.albumsFailed)),
		label("Files:", fmt.Sprintf("%d downloaded, %d skipped, %d failed", m.filesDownloaded, m.filesSkipped, m.filesFailed)),
		label("Total Size:", FormatBytes(m.totalSize)),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Average Speed:"), speedStyle.Render(FormatSpeed(m.averageSpeed()))),
	}

	if m.finished {
		if m.finalErr != nil {
			stats = append(stats, errorStyle.Render("STOPPED: "+m.finalErr.Error()))
		} else {
			stats = append(stats, successStyle.Render("FINISHED"))
		}
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

// renderActiveFilesPanel renders the files currently downloading
func (m *Model) renderActiveFilesPanel(width int) string {
	title := titleStyle.Render(" DOWNLOADING ")

	active := m.filesIn(FileActive)
	if len(active) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("No active downloads")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	var items []string
	for _, f := range active {
		items = append(items, m.renderFileItem(f, width-4))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

// renderFileItem renders a single download with progress bar
func (m *Model) renderFileItem(item *FileItem, width int) string {
	progressBar, ok := m.progressBars[item.Name]
	if !ok {
		return ""
	}

	var pct float64
	if item.Size > 0 {
		pct = float64(item.Downloaded) / float64(item.Size)
	}
	if pct > 1.0 {
		pct = 1.0
	}

	progressBar.Width = width - 20
	if progressBar.Width < 10 {
		progressBar.Width = 10
	}

	info := fmt.Sprintf("%s %s @ %s",
		queueItemActiveStyle.Render(item.Name),
		lipgloss.NewStyle().Foreground(dimWhite).Render(FormatBytes(item.Downloaded)+"/"+FormatBytes(item.Size)),
		speedStyle.Render(FormatSpeed(item.Speed())),
	)

	return lipgloss.JoinVertical(lipgloss.Left, info, progressBar.ViewAs(pct))
}

// renderFinishedPanel lists the most recent finished files
func (m *Model) renderFinishedPanel(width int) string {
	title := titleStyle.Render(" FINISHED ")

	finished := m.filesIn(FileCompleted, FileSkipped, FileFailed)
	if len(finished) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Nothing yet")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	start := len(finished) - 5
	if start < 0 {
		start = 0
	}

	var items []string
	if start > 0 {
		items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render(fmt.Sprintf("  ... %d earlier", start)))
	}
	for _, f := range finished[start:] {
		switch f.State {
		case FileCompleted:
			items = append(items, queueItemCompletedStyle.Render("✓ "+f.Name+" "+FormatBytes(f.Downloaded)))
		case FileSkipped:
			items = append(items, queueItemStyle.Render("# "+f.Name+" (already downloaded)"))
		case FileFailed:
			items = append(items, errorStyle.PaddingLeft(2).Render("✗ "+f.Name))
		}
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

// renderPacingPanel shows the pause currently in effect
func (m *Model) renderPacingPanel(width int) string {
	title := titleStyle.Render(" PACING ")

	remaining := time.Until(m.waitUntil)
	if m.waitReason == "" || remaining <= 0 {
		content := GetWaitStyle(0).Render("No pause in effect")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	total := m.waitUntil.Sub(m.waitStart)
	elapsed := 0.0
	if total > 0 {
		elapsed = float64(total-remaining) / float64(total)
	}

	barWidth := width - 8
	if barWidth < 4 {
		barWidth = 4
	}
	filled := int(elapsed * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	style := GetWaitStyle(remaining)
	bar := style.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", barWidth-filled))

	content := []string{
		label("Reason:", m.waitReason),
		bar,
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Resume in:"), style.Render(formatDuration(remaining))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, entry := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(entry.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(entry.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", entry.Level))
		message := logMessageStyle.Render(truncate(entry.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	logsHeight := m.height - 35
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Quit (cancels the run)
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Files:
    ✓        - Downloaded
    #        - Already on disk, skipped
    ✗        - Failed
`

	return panelStyle.Width(m.width).Render(help)
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
