package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/shared"
)

// PollState is a state of the polling state machine.
type PollState int

const (
	Submitted PollState = iota
	Polling
	Completed
	Failed
)

func (s PollState) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Polling:
		return "polling"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// PollOpts configures the poller.
type PollOpts struct {
	Interval    time.Duration // Wait between fetches (default: 4s)
	Increment   int           // Progress added per non-terminal fetch (default: 10)
	Ceiling     int           // Progress cap below completion (default: 95)
	MaxAttempts int           // Fetch limit; 0 polls until terminal or the context ends
}

// DefaultPollOpts returns the stock polling configuration.
func DefaultPollOpts() PollOpts {
	return PollOpts{Interval: 4 * time.Second, Increment: 10, Ceiling: 95}
}

func (o PollOpts) withDefaults() PollOpts {
	d := DefaultPollOpts()
	if o.Interval <= 0 {
		o.Interval = d.Interval
	}
	if o.Increment <= 0 {
		o.Increment = d.Increment
	}
	if o.Ceiling <= 0 || o.Ceiling >= 100 {
		o.Ceiling = d.Ceiling
	}
	if o.MaxAttempts < 0 {
		o.MaxAttempts = 0
	}
	return o
}

// TaskGetter fetches a single task.
type TaskGetter interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
}

// Poller drives one task from submission to a terminal status.
type Poller struct {
	api  TaskGetter
	opts PollOpts
}

// NewPoller creates a Poller. Zero option fields take their defaults.
func NewPoller(api TaskGetter, opts PollOpts) *Poller {
	return &Poller{api: api, opts: opts.withDefaults()}
}

// Opts returns the effective options.
func (p *Poller) Opts() PollOpts {
	return p.opts
}

// Poll fetches the task until its normalized status is terminal.
//
// Each non-terminal fetch advances progress by the increment, capped at the ceiling, and reports it before
// waiting. A completed task reports 100 and is returned. A failed task is returned together with
// [shared.ErrTaskFailed] and is not retried. Fetch errors end polling immediately. When MaxAttempts is reached
// the last task is returned with [shared.ErrPollLimit]; a cancelled context returns its error.
func (p *Poller) Poll(ctx context.Context, id string, progress chan<- ProgressUpdate) (*models.Task, error) {
	percent := 0
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		task, err := p.api.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}

		info := task.StatusInfo()
		switch {
		case info.IsCompleted():
			sendProgress(progress, completedUpdate(attempt, task))
			return task, nil
		case info.IsFailed():
			sendProgress(progress, failedUpdate(attempt, percent, task))
			return task, fmt.Errorf("%w: %s (%s)", shared.ErrTaskFailed, id, info.Raw)
		}

		percent = min(percent+p.opts.Increment, p.opts.Ceiling)
		sendProgress(progress, pollUpdate(attempt, percent, task))

		if p.opts.MaxAttempts > 0 && attempt >= p.opts.MaxAttempts {
			return task, fmt.Errorf("%w: %s after %d attempts", shared.ErrPollLimit, id, attempt)
		}

		timer.Reset(p.opts.Interval)
		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-timer.C:
		}
	}
}

// State maps a task's normalized status onto the state machine.
func State(task *models.Task) PollState {
	info := task.StatusInfo()
	switch {
	case info.IsCompleted():
		return Completed
	case info.IsFailed():
		return Failed
	case info.Normalized == "":
		return Submitted
	default:
		return Polling
	}
}
