// Package tui renders live progress for statement and job run polling.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/execution"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/poll"
)

// StateMsg reports one observed remote state.
type StateMsg struct {
	Observation poll.Observation
	Elapsed     time.Duration
}

// DoneMsg ends the display with the final status.
type DoneMsg struct {
	Status execution.Status
	Detail string
}

// Model is the Bubbletea state for a single polled operation.
type Model struct {
	title     string
	timeout   time.Duration
	spinner   spinner.Model
	bar       progress.Model
	state     string
	elapsed   time.Duration
	polls     int
	status    execution.Status
	detail    string
	finished  bool
	cancelled bool
}

// NewModel constructs a model for an operation bounded by timeout.
func NewModel(title string, timeout time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30

	return Model{
		title:   title,
		timeout: timeout,
		spinner: s,
		bar:     bar,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// State returns the last observed remote state.
func (m Model) State() string {
	return m.state
}

// Polls returns how many states have been observed.
func (m Model) Polls() int {
	return m.polls
}

// IsFinished reports whether the operation has completed or been interrupted.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the user interrupted the display.
func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m Model) ratio() float64 {
	if m.timeout <= 0 {
		return 0
	}
	r := float64(m.elapsed) / float64(m.timeout)
	if r > 1 {
		return 1
	}
	return r
}
