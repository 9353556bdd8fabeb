package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/execution"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/poll"
)

// Observer receives poll observations from an executor.
type Observer func(poll.Observation, time.Duration)

// Work is an operation that reports its progress through observe and
// returns the final status with a short detail line.
type Work func(ctx context.Context, observe Observer) (execution.Status, string)

// Run renders progress on out while work executes. Interrupting the display
// cancels the context passed to work; Run always waits for work to return.
func Run(ctx context.Context, out io.Writer, title string, timeout time.Duration, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, timeout),
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInput(nil),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		status, detail := work(ctx, func(obs poll.Observation, elapsed time.Duration) {
			p.Send(StateMsg{Observation: obs, Elapsed: elapsed})
		})
		p.Send(DoneMsg{Status: status, Detail: detail})
	}()

	_, err := p.Run()
	cancel()
	<-done
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
