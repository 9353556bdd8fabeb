package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/execution"
)

// View renders the current state of the model.
func (m Model) View() string {
	sections := []string{titleStyle.Render(m.title)}

	if m.finished {
		switch {
		case m.cancelled:
			sections = append(sections, summaryStyle.Render(skippedStyle.Render("⊘ interrupted")))
		case m.status != "":
			sections = append(sections, summaryStyle.Render(StatusLine(m.status, m.detail)))
		}
		return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
	}

	state := m.state
	if state == "" {
		state = "SUBMITTING"
	}
	line := fmt.Sprintf("%s %s", m.spinner.View(), stateStyle.Render(state))
	sections = append(sections, line)

	if m.timeout > 0 {
		label := fmt.Sprintf("%s / %s", execution.FormatDuration(m.elapsed), execution.FormatDuration(m.timeout))
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Left, m.bar.ViewAs(m.ratio()), " ", pendingStyle.Render(label)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}
