package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"daemonizer/internal/config"
	"daemonizer/internal/daemon"
	"daemonizer/internal/task"
)

// taskDefinition describes a built-in task before configuration overrides.
type taskDefinition struct {
	Name     string
	Kind     task.Kind
	Interval time.Duration
	Main     func(out io.Writer) task.Func
}

// builtinTasks is registered in order; the order fixes background slots.
var builtinTasks = []taskDefinition{
	{
		Name:     "heartbeat",
		Kind:     task.Foreground,
		Interval: 2 * time.Second,
		Main:     heartbeat(time.Second),
	},
	{
		Name:     "sweep",
		Kind:     task.Background,
		Interval: 5 * time.Second,
		Main:     sweep(10 * time.Second),
	},
}

func heartbeat(work time.Duration) func(io.Writer) task.Func {
	return func(out io.Writer) task.Func {
		return func(ctx context.Context) error {
			fmt.Fprintln(out, "Task 1 Running...")
			if err := pause(ctx, work); err != nil {
				return err
			}
			fmt.Fprintln(out, "...Task 1 Complete")
			return nil
		}
	}
}

func sweep(work time.Duration) func(io.Writer) task.Func {
	return func(out io.Writer) task.Func {
		return func(ctx context.Context) error {
			fmt.Fprintln(out, "Background Task 1 Running...")
			if err := pause(ctx, work); err != nil {
				return err
			}
			fmt.Fprintln(out, "...Background Task 1 Complete.")
			return nil
		}
	}
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resolvedTask is a definition with configuration applied.
type resolvedTask struct {
	taskDefinition
	Enabled bool
}

func resolveTasks(cfg *config.Config, defs []taskDefinition) []resolvedTask {
	resolved := make([]resolvedTask, 0, len(defs))
	for _, def := range defs {
		def.Interval = cfg.TaskInterval(def.Name, def.Interval)
		resolved = append(resolved, resolvedTask{taskDefinition: def, Enabled: cfg.TaskEnabled(def.Name)})
	}
	return resolved
}

// registerTasks adds every enabled task to d. Output goes to the process's
// standard output, which the daemon redirects.
//
// Workers register disabled tasks as well: the daemon picked its tasks when
// it started, and a worker must still find one that was disabled in the
// config file since then.
func registerTasks(d *daemon.Daemon, cfg *config.Config, defs []taskDefinition, includeDisabled bool) {
	for _, rt := range resolveTasks(cfg, defs) {
		if !rt.Enabled && !includeDisabled {
			continue
		}
		var t *task.Task
		if rt.Kind == task.Background {
			t = d.BackgroundTask()
		} else {
			t = d.Task()
		}
		t.SetName(rt.Name).SetInterval(rt.Interval).SetMain(rt.Main(os.Stdout))
	}
}
