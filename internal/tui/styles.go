package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/execution"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	summaryStyle = lipgloss.NewStyle().MarginTop(1)
)

// StatusIcon returns the glyph representing a result status.
func StatusIcon(status execution.Status) string {
	switch status {
	case execution.StatusSuccess:
		return successStyle.Render("✓")
	case execution.StatusFailed, execution.StatusError:
		return failureStyle.Render("✗")
	case execution.StatusTimeout:
		return warningStyle.Render("⏱")
	case execution.StatusCanceled:
		return skippedStyle.Render("⊘")
	default:
		return pendingStyle.Render("…")
	}
}

// StatusLine renders "<icon> STATUS detail".
func StatusLine(status execution.Status, detail string) string {
	line := StatusIcon(status) + " " + string(status)
	if detail != "" {
		line += " " + pendingStyle.Render(detail)
	}
	return line
}
