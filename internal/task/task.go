package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnconfiguredPhase reports that a required phase callable was never set.
var ErrUnconfiguredPhase = errors.New("task phase not configured")

// Func is a phase callable. The context is cancelled when the daemon (or the
// worker process running the phase) is asked to stop.
type Func func(ctx context.Context) error

// Kind distinguishes where a task's main phase executes.
type Kind int

const (
	// Foreground tasks run synchronously inside the daemon loop.
	Foreground Kind = iota
	// Background tasks run in a separate worker process.
	Background
)

func (k Kind) String() string {
	switch k {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Task is a builder-style description of scheduled work.
type Task struct {
	name     string
	interval time.Duration
	start    Func
	main     Func
	stop     Func
}

// New returns an empty task with a zero interval.
func New() *Task {
	return &Task{}
}

// SetName labels the task for logs and status output.
func (t *Task) SetName(name string) *Task {
	t.name = strings.TrimSpace(name)
	return t
}

// SetStart stores the optional start hook.
func (t *Task) SetStart(fn Func) *Task {
	t.start = fn
	return t
}

// SetMain stores the required main phase.
func (t *Task) SetMain(fn Func) *Task {
	t.main = fn
	return t
}

// SetStop stores the optional stop hook.
func (t *Task) SetStop(fn Func) *Task {
	t.stop = fn
	return t
}

// SetInterval sets the minimum time between two runs of the main phase.
// Negative values are treated as zero.
func (t *Task) SetInterval(d time.Duration) *Task {
	if d < 0 {
		d = 0
	}
	t.interval = d
	return t
}

// Name returns the configured label, or "unnamed".
func (t *Task) Name() string {
	if t.name == "" {
		return "unnamed"
	}
	return t.name
}

// Interval returns the configured run interval.
func (t *Task) Interval() time.Duration {
	return t.interval
}

// HasMain reports whether a main phase is configured.
func (t *Task) HasMain() bool {
	return t.main != nil
}

// RunStart invokes the start hook when one is set.
func (t *Task) RunStart(ctx context.Context) error {
	if t.start == nil {
		return nil
	}
	return t.start(ctx)
}

// RunMain invokes the main phase. It fails with ErrUnconfiguredPhase, without
// side effects, when no main callable has been set.
func (t *Task) RunMain(ctx context.Context) error {
	if t.main == nil {
		return fmt.Errorf("task %s: main: %w", t.Name(), ErrUnconfiguredPhase)
	}
	return t.main(ctx)
}

// RunStop invokes the stop hook when one is set.
func (t *Task) RunStop(ctx context.Context) error {
	if t.stop == nil {
		return nil
	}
	return t.stop(ctx)
}
