package schedule

import (
	"testing"
	"time"
)

func TestReadyWaitsForFullInterval(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var state RunState
	state.Reset(start)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"at init", 0, false},
		{"just before", 1999 * time.Millisecond, false},
		{"exactly interval", 2 * time.Second, true},
		{"well after", 9 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := state.Ready(start.Add(tt.offset), 2*time.Second); got != tt.want {
				t.Fatalf("Ready(+%v) = %v, want %v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestMarkRunRestartsWindow(t *testing.T) {
	start := time.Unix(1000, 0)
	var state RunState
	state.Reset(start)

	ran := start.Add(3 * time.Second)
	state.MarkRun(ran)
	if state.Ready(ran.Add(time.Second), 2*time.Second) {
		t.Fatal("task should not be ready before t0+interval")
	}
	if !state.Ready(ran.Add(2*time.Second), 2*time.Second) {
		t.Fatal("task should be ready at t0+interval")
	}
}

func TestLateCheckDoesNotQueueRuns(t *testing.T) {
	start := time.Unix(0, 0)
	var state RunState
	state.Reset(start)

	late := start.Add(10 * time.Second)
	if !state.Ready(late, time.Second) {
		t.Fatal("expected ready after long gap")
	}
	state.MarkRun(late)
	if state.Ready(late, time.Second) {
		t.Fatal("missed intervals must not produce extra runs")
	}
}

func TestResetClearsChild(t *testing.T) {
	state := RunState{ChildPID: 42}
	state.Reset(time.Now())
	if state.ChildPID != 0 {
		t.Fatalf("expected child pid cleared, got %d", state.ChildPID)
	}
}

func TestManualClockAdvance(t *testing.T) {
	start := time.Unix(50, 0)
	clock := NewManualClock(start)
	clock.Advance(1500 * time.Millisecond)
	if got := clock.Now().Sub(start); got != 1500*time.Millisecond {
		t.Fatalf("unexpected advance %v", got)
	}
}
