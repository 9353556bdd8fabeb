package tui

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/execution"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/poll"
)

func TestNewModelInitialisesState(t *testing.T) {
	m := NewModel("SQL statement", time.Minute)

	require.Equal(t, "SQL statement", m.title)
	require.Equal(t, time.Minute, m.timeout)
	require.False(t, m.IsFinished())
	require.Zero(t, m.Polls())
	require.NotNil(t, m.Init())
}

func TestUpdateTracksObservedStates(t *testing.T) {
	m := NewModel("job", time.Minute)

	updated, cmd := m.Update(StateMsg{Observation: poll.Observation{State: "PENDING", Phase: poll.PhasePending}, Elapsed: 10 * time.Second})
	require.Nil(t, cmd)
	m = updated.(Model)
	updated, _ = m.Update(StateMsg{Observation: poll.Observation{State: "RUNNING", Phase: poll.PhasePending}, Elapsed: 30 * time.Second})
	m = updated.(Model)

	require.Equal(t, "RUNNING", m.State())
	require.Equal(t, 2, m.Polls())
	require.InDelta(t, 0.5, m.ratio(), 0.0001)
}

func TestUpdateDoneQuits(t *testing.T) {
	m := NewModel("job", time.Minute)

	updated, cmd := m.Update(DoneMsg{Status: execution.StatusSuccess, Detail: "3 rows"})
	require.NotNil(t, cmd)
	m = updated.(Model)
	require.True(t, m.IsFinished())
	require.Equal(t, execution.StatusSuccess, m.status)
}

func TestUpdateHandlesCtrlC(t *testing.T) {
	m := NewModel("job", time.Minute)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	m = updated.(Model)
	require.True(t, m.Cancelled())
	require.True(t, m.IsFinished())
}

func TestUpdateStopsSpinnerWhenFinished(t *testing.T) {
	m := NewModel("job", time.Minute)
	updated, _ := m.Update(tea.QuitMsg{})
	m = updated.(Model)

	_, cmd := m.Update(spinner.TickMsg{})
	require.Nil(t, cmd)
}

func TestRatioIsClamped(t *testing.T) {
	m := NewModel("job", time.Minute)
	m.elapsed = 2 * time.Minute
	require.Equal(t, 1.0, m.ratio())

	m.timeout = 0
	require.Zero(t, m.ratio())
}

func TestViewRendersProgress(t *testing.T) {
	m := NewModel("SQL statement", time.Minute)
	require.Contains(t, m.View(), "SUBMITTING")

	updated, _ := m.Update(StateMsg{Observation: poll.Observation{State: "RUNNING"}, Elapsed: 30 * time.Second})
	view := updated.(Model).View()
	require.Contains(t, view, "SQL statement")
	require.Contains(t, view, "RUNNING")
	require.Contains(t, view, "30.0s / 1.0m")
}

func TestViewRendersFinalStatus(t *testing.T) {
	m := NewModel("job", time.Minute)
	updated, _ := m.Update(DoneMsg{Status: execution.StatusFailed, Detail: "boom"})

	view := updated.(Model).View()
	require.Contains(t, view, "FAILED")
	require.Contains(t, view, "boom")
}

func TestStatusIcon(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   execution.Status
		expected string
	}{
		{"success shows checkmark", execution.StatusSuccess, "✓"},
		{"failed shows cross", execution.StatusFailed, "✗"},
		{"error shows cross", execution.StatusError, "✗"},
		{"timeout shows stopwatch", execution.StatusTimeout, "⏱"},
		{"canceled shows circle-slash", execution.StatusCanceled, "⊘"},
		{"empty shows ellipsis", "", "…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Contains(t, StatusIcon(tt.status), tt.expected)
		})
	}
}

func TestRunWaitsForWork(t *testing.T) {
	var out bytes.Buffer
	called := false

	err := Run(context.Background(), &out, "job", time.Minute, func(ctx context.Context, observe Observer) (execution.Status, string) {
		called = true
		observe(poll.Observation{State: "RUNNING", Phase: poll.PhasePending}, time.Second)
		return execution.StatusSuccess, "done"
	})
	require.NoError(t, err)
	require.True(t, called)
	require.Contains(t, out.String(), "SUCCESS")
}
