// Package execution runs SQL statements and notebooks against a workspace and
// reduces every outcome, including transport failures, to a tagged result.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/logger"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/poll"
	apperrors "github.com/alexisbeaulieu97/dbx-aidev/pkg/errors"
)

// Option configures an executor.
type Option func(*settings)

type settings struct {
	clock      poll.Clock
	logger     *logger.Logger
	observer   func(poll.Observation, time.Duration)
	interval   time.Duration
	retryDelay time.Duration
}

// WithClock replaces the wall clock used for deadlines, poll sleeps and retry delays.
func WithClock(clock poll.Clock) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger injects a logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithObserver receives every observed remote state, e.g. to drive a progress display.
func WithObserver(fn func(poll.Observation, time.Duration)) Option {
	return func(s *settings) {
		s.observer = fn
	}
}

// WithPollInterval overrides the delay between status checks.
func WithPollInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRetryDelay overrides the fixed delay between notebook retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

func newSettings(interval time.Duration, opts []Option) settings {
	s := settings{
		clock:      poll.SystemClock{},
		logger:     logger.Nop(),
		interval:   interval,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) observe(log *logger.Logger, what string) func(poll.Observation, time.Duration) {
	return func(obs poll.Observation, elapsed time.Duration) {
		log.Debug(what, "state", obs.State, "elapsed", FormatDuration(elapsed))
		if s.observer != nil {
			s.observer(obs, elapsed)
		}
	}
}

// callError classifies an error returned by a client call.
func callError(op string, err error) *apperrors.ExecutionError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewExecutionError(apperrors.KindCancelled, fmt.Sprintf("%s: %v", op, err), err)
	}
	return apperrors.NewExecutionError(apperrors.KindTransport, fmt.Sprintf("%s: %v", op, err), err)
}

// pollError converts a poll outcome that did not complete into an execution error.
func pollError[T any](what string, outcome poll.Outcome[T]) (Status, *apperrors.ExecutionError) {
	switch outcome.Kind {
	case poll.TimedOut:
		return StatusTimeout, timedOut(what, outcome.Timeout)
	case poll.Cancelled:
		return StatusError, apperrors.NewExecutionError(apperrors.KindCancelled, fmt.Sprintf("%s cancelled", what), outcome.Err)
	case poll.ProbeFailed:
		return StatusError, callError(fmt.Sprintf("check %s status", what), outcome.Err)
	default:
		return StatusError, unknownState(outcome.State)
	}
}
