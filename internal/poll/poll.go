// Package poll implements the bounded wait used by the statement and job
// run executors: probe, classify the reported state, sleep a fixed interval
// while it is pending, stop on a terminal state, an unrecognised state, a
// probe error or the deadline.
package poll

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds a poll loop when Options.Timeout is zero.
	DefaultTimeout = 300 * time.Second
	// DefaultInterval separates probes when Options.Interval is zero.
	DefaultInterval = 10 * time.Second
)

// Phase is the classification of one observed state.
type Phase int

const (
	// PhaseUnknown breaks the loop immediately.
	PhaseUnknown Phase = iota
	// PhasePending keeps polling after the interval.
	PhasePending
	// PhaseTerminal ends the loop successfully.
	PhaseTerminal
)

// Observation pairs a state label with its phase.
type Observation struct {
	State string
	Phase Phase
}

// Kind describes why a poll loop stopped.
type Kind string

const (
	Completed   Kind = "completed"
	TimedOut    Kind = "timed_out"
	Aborted     Kind = "aborted"
	ProbeFailed Kind = "probe_failed"
	Cancelled   Kind = "cancelled"
)

// Options configures a poll loop.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
	// Start anchors the deadline; zero means the moment Until is called.
	Start time.Time
	Clock Clock
	// Observer, when set, sees every classified observation in order.
	Observer func(obs Observation, elapsed time.Duration)
}

// Outcome is the result of a poll loop. Value and State hold the last
// successful probe, so a TimedOut outcome still carries the last pending state.
type Outcome[T any] struct {
	Kind     Kind
	Value    T
	State    string
	Err      error
	Elapsed  time.Duration
	Attempts int
	Timeout  time.Duration
}

// Until calls probe immediately and then once per interval until classify
// reports a terminal or unknown state, probe fails, ctx is cancelled, or the
// timeout elapses. It never returns an error; the reason is in Outcome.Kind.
func Until[T any](ctx context.Context, probe func(context.Context) (T, error), classify func(T) Observation, opts Options) Outcome[T] {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	start := opts.Start
	if start.IsZero() {
		start = clock.Now()
	}

	out := Outcome[T]{Timeout: timeout}
	for {
		out.Elapsed = clock.Now().Sub(start)
		if out.Elapsed >= timeout {
			out.Kind = TimedOut
			return out
		}
		if err := ctx.Err(); err != nil {
			out.Kind = Cancelled
			out.Err = err
			return out
		}

		value, err := probe(ctx)
		out.Attempts++
		if err != nil {
			out.Kind = ProbeFailed
			out.Err = err
			out.Elapsed = clock.Now().Sub(start)
			return out
		}

		obs := classify(value)
		out.Value = value
		out.State = obs.State
		out.Elapsed = clock.Now().Sub(start)
		if opts.Observer != nil {
			opts.Observer(obs, out.Elapsed)
		}

		switch obs.Phase {
		case PhaseTerminal:
			out.Kind = Completed
			return out
		case PhasePending:
			wait := interval
			if remaining := timeout - out.Elapsed; remaining < wait {
				wait = remaining
			}
			if err := clock.Sleep(ctx, wait); err != nil {
				out.Kind = Cancelled
				out.Err = err
				out.Elapsed = clock.Now().Sub(start)
				return out
			}
		default:
			out.Kind = Aborted
			return out
		}
	}
}
