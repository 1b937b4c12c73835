package task_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"daemonizer/internal/task"
)

func TestRunMainWithoutMainFails(t *testing.T) {
	calls := 0
	tk := task.New().
		SetName("probe").
		SetStart(func(context.Context) error { calls++; return nil }).
		SetStop(func(context.Context) error { calls++; return nil })

	err := tk.RunMain(context.Background())
	if !errors.Is(err, task.ErrUnconfiguredPhase) {
		t.Fatalf("expected ErrUnconfiguredPhase, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no hooks to run, got %d calls", calls)
	}
	if tk.HasMain() {
		t.Fatal("expected HasMain to be false")
	}
}

func TestChainedSettersConfigureTask(t *testing.T) {
	var order []string
	tk := task.New().
		SetName("  report ").
		SetInterval(2 * time.Second).
		SetStart(func(context.Context) error { order = append(order, "start"); return nil }).
		SetMain(func(context.Context) error { order = append(order, "main"); return nil }).
		SetStop(func(context.Context) error { order = append(order, "stop"); return nil })

	ctx := context.Background()
	for _, run := range []func(context.Context) error{tk.RunStart, tk.RunMain, tk.RunStop} {
		if err := run(ctx); err != nil {
			t.Fatalf("phase returned error: %v", err)
		}
	}

	if got := tk.Name(); got != "report" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := tk.Interval(); got != 2*time.Second {
		t.Fatalf("unexpected interval %v", got)
	}
	want := []string{"start", "main", "stop"}
	if len(order) != len(want) {
		t.Fatalf("unexpected phase order %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("phase %d: got %q want %q", i, order[i], want[i])
		}
	}
}

func TestOptionalHooksAreNoops(t *testing.T) {
	tk := task.New()
	if err := tk.RunStart(context.Background()); err != nil {
		t.Fatalf("RunStart: %v", err)
	}
	if err := tk.RunStop(context.Background()); err != nil {
		t.Fatalf("RunStop: %v", err)
	}
	if tk.Name() != "unnamed" {
		t.Fatalf("expected default name, got %q", tk.Name())
	}
}

func TestMainErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	tk := task.New().SetMain(func(context.Context) error { return boom })
	if err := tk.RunMain(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestNegativeIntervalClampsToZero(t *testing.T) {
	if got := task.New().SetInterval(-time.Second).Interval(); got != 0 {
		t.Fatalf("expected zero interval, got %v", got)
	}
}

func TestKindString(t *testing.T) {
	cases := map[task.Kind]string{
		task.Foreground: "foreground",
		task.Background: "background",
		task.Kind(7):    "kind(7)",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}
