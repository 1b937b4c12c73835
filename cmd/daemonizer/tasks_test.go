package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"daemonizer/internal/daemon"
	"daemonizer/internal/task"
	"daemonizer/internal/testsupport"
	"daemonizer/internal/worker"
)

func TestResolveTasksAppliesOverrides(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTask("heartbeat", 500, true),
		testsupport.WithTask("sweep", 0, false),
	)

	resolved := resolveTasks(cfg, builtinTasks)
	if len(resolved) != 2 {
		t.Fatalf("resolved %d tasks, want 2", len(resolved))
	}
	if resolved[0].Name != "heartbeat" || resolved[0].Interval != 500*time.Millisecond || !resolved[0].Enabled {
		t.Fatalf("unexpected heartbeat: %+v", resolved[0])
	}
	if resolved[1].Name != "sweep" || resolved[1].Interval != 5*time.Second || resolved[1].Enabled {
		t.Fatalf("unexpected sweep: %+v", resolved[1])
	}
	if resolved[1].Kind != task.Background {
		t.Fatalf("sweep kind = %s", resolved[1].Kind)
	}
}

func TestBuiltinTaskOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := heartbeat(0)(&buf)(context.Background()); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if buf.String() != "Task 1 Running...\n...Task 1 Complete\n" {
		t.Fatalf("heartbeat output = %q", buf.String())
	}

	buf.Reset()
	if err := sweep(0)(&buf)(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if buf.String() != "Background Task 1 Running...\n...Background Task 1 Complete.\n" {
		t.Fatalf("sweep output = %q", buf.String())
	}
}

func TestBuiltinTaskStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := sweep(time.Hour)(&buf)(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if buf.String() != "Background Task 1 Running...\n" {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestBuildTaskRows(t *testing.T) {
	rows := buildTaskRows([]resolvedTask{{
		taskDefinition: taskDefinition{Name: "sweep", Kind: task.Background, Interval: 5 * time.Second},
		Enabled:        true,
	}})
	want := []string{"sweep", "Background", "5s", "yes"}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Fatalf("row = %v, want %v", rows[0], want)
		}
	}
}

func TestWorkerRunsTaskDisabledAfterStart(t *testing.T) {
	var ran []string
	record := func(name string) func(io.Writer) task.Func {
		return func(io.Writer) task.Func {
			return func(context.Context) error {
				ran = append(ran, name)
				return nil
			}
		}
	}
	defs := []taskDefinition{
		{Name: "alpha", Kind: task.Background, Interval: time.Second, Main: record("alpha")},
		{Name: "beta", Kind: task.Background, Interval: time.Second, Main: record("beta")},
	}

	// The daemon started with both tasks and launched alpha in slot 0; the
	// config file was then edited to disable alpha.
	cfg := testsupport.NewConfig(t, testsupport.WithTask("alpha", 0, false))
	t.Setenv(worker.EnvSlot, "0")
	t.Setenv(worker.EnvTask, "alpha")

	var exits []int
	d := daemon.New(cfg.Daemon,
		daemon.WithRole(worker.RoleWorker),
		daemon.WithExit(func(code int) { exits = append(exits, code) }),
	)
	registerTasks(d, cfg, defs, true)

	if _, err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(ran) != 1 || ran[0] != "alpha" {
		t.Fatalf("worker ran %v, want [alpha]", ran)
	}
	if len(exits) != 1 || exits[0] != 0 {
		t.Fatalf("exit codes = %v, want [0]", exits)
	}
}

func TestRegisterTasksSkipsDisabledTasks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTask("sweep", 0, false))

	// With sweep skipped, heartbeat is the only task and it is foreground.
	t.Setenv(worker.EnvSlot, "0")
	t.Setenv(worker.EnvTask, "sweep")
	var exits []int
	w := daemon.New(cfg.Daemon,
		daemon.WithRole(worker.RoleWorker),
		daemon.WithExit(func(code int) { exits = append(exits, code) }),
	)
	registerTasks(w, cfg, builtinTasks, false)
	if _, err := w.Start(); err == nil {
		t.Fatal("expected a worker without disabled tasks to reject sweep")
	}
	if len(exits) != 1 || exits[0] != 1 {
		t.Fatalf("exit codes = %v, want [1]", exits)
	}
}
