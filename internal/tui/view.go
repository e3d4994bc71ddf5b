package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jlaneve/prompt/internal/operations"
	"github.com/jlaneve/prompt/internal/types"
)

// Minimal styles for the TUI
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 0, 0, 0)

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle = lipgloss.NewStyle()

	helpStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(1, 2).
			Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	eventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// defaultWidth is used until the first WindowSizeMsg arrives
const defaultWidth = 80

// View renders the entire TUI
func (m Model) View() string {
	if !m.ready {
		return "Reading repository..."
	}
	if m.showHelp {
		return m.renderWithHelp()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderPreview(),
		m.renderDetails(),
		m.renderStatusArea(),
		m.renderActions(),
	)
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

// renderHeader renders the title with refresh info
func (m Model) renderHeader() string {
	summary := "Prompt preview"
	if !m.updatedAt.IsZero() {
		summary += fmt.Sprintf(" - refreshed %d times, last at %s", m.refreshes, m.updatedAt.Format("15:04:05"))
	}
	return headerStyle.Render(truncate(summary, m.contentWidth()))
}

// renderPreview renders the prompt exactly as the shell would print it
func (m Model) renderPreview() string {
	// Border and padding take two columns on each side
	inner := m.contentWidth() - 4
	if inner < 1 {
		inner = 1
	}
	lines := previewLines(m.format.FormatSection(types.SectionAll, m.snapshot, m.jobs, m.lastStatus))
	for i, line := range lines {
		lines[i] = lipgloss.NewStyle().MaxWidth(inner).Render(line)
	}
	return previewStyle.Render(strings.Join(lines, "\n"))
}

// previewLines drops the blank line the pre-command section starts with
func previewLines(rendered string) []string {
	return strings.Split(strings.TrimPrefix(rendered, "\n"), "\n")
}

// renderDetails renders the labelled breakdown of the snapshot
func (m Model) renderDetails() string {
	details := operations.Explain(m.snapshot)
	details = append(details,
		operations.Detail{Label: "jobs", Value: fmt.Sprint(m.jobs)},
		operations.Detail{Label: "last status", Value: fmt.Sprint(m.lastStatus)},
	)

	labelWidth := 0
	for _, d := range details {
		if w := runewidth.StringWidth(d.Label); w > labelWidth {
			labelWidth = w
		}
	}
	valueWidth := m.contentWidth() - labelWidth - 2

	var lines []string
	for _, d := range details {
		label := runewidth.FillRight(d.Label, labelWidth)
		lines = append(lines, labelStyle.Render(label)+"  "+valueStyle.Render(truncate(d.Value, valueWidth)))
	}
	return strings.Join(lines, "\n")
}

// renderStatusArea shows the last error, or the event that caused the
// latest refresh
func (m Model) renderStatusArea() string {
	width := m.contentWidth()
	if m.lastError != "" {
		return errorStyle.Height(2).Render("\n" + truncate("✗ "+sanitizeMessage(m.lastError), width))
	}
	if m.lastEvent != "" {
		return eventStyle.Height(2).Render("\n" + truncate(sanitizeMessage(m.lastEvent), width))
	}
	return lipgloss.NewStyle().Height(2).Render("")
}

// sanitizeMessage removes newlines and other problematic characters for single-line display
func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	return strings.Join(strings.Fields(msg), " ")
}

// truncate shortens s to at most width terminal cells
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// renderActions renders the action bar at the bottom
func (m Model) renderActions() string {
	content := "r: refresh  j: cycle jobs  s: toggle exit status  ?: help  q: quit"
	return lipgloss.NewStyle().
		Height(1).
		Foreground(lipgloss.Color("240")).
		Render(truncate(content, m.contentWidth()))
}

// renderWithHelp renders the help screen
func (m Model) renderWithHelp() string {
	helpText := `Prompt Preview Help

The preview re-reads the repository whenever HEAD, the index,
refs or the stash change, and whenever the working directory changes.

Keys:
  r         Refresh now
  j         Cycle background jobs (0, 1, 2)
  s         Toggle the previous exit status
  ?         Toggle this help
  q/Esc     Quit

Status flags:
  C conflicted   n untracked    N staged new
  m modified     M staged       t/T type change
  r/R renamed    d/D deleted

Markers:
  A ahead   B behind   AB diverged   S stash

Press ? or Esc to close help`

	helpBox := helpStyle.Render(helpText)
	if m.width <= 0 || m.height <= 0 {
		return helpBox
	}
	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		helpBox,
	)
}
