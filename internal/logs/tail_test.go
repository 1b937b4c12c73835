package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"daemonizer/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	writeLog(t, path, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if !slices.Equal(result.Lines, []string{"b", "c"}) {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("offset = %d, want 6", result.Offset)
	}
}

func TestTailWithholdsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	writeLog(t, path, "Task 1 Running...\n...Task 1 Comp")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if !slices.Equal(result.Lines, []string{"Task 1 Running..."}) {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}

	appendLog(t, path, "lete\n")
	result, err = logs.Tail(context.Background(), path, logs.TailOptions{Offset: result.Offset})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if !slices.Equal(result.Lines, []string{"...Task 1 Complete"}) {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	writeLog(t, path, "one\ntwo\nthree\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	writeLog(t, path, "fresh\n")

	result, err = logs.Tail(context.Background(), path, logs.TailOptions{Offset: result.Offset})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if !slices.Equal(result.Lines, []string{"fresh"}) {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "absent.log"), logs.TailOptions{Offset: 42})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestTailRejectsDirectory(t *testing.T) {
	if _, err := logs.Tail(context.Background(), t.TempDir(), logs.TailOptions{}); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	writeLog(t, path, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	done := make(chan logs.TailResult, 1)
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		done <- res
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	appendLog(t, path, "later\n")

	select {
	case res := <-done:
		if !slices.Equal(res.Lines, []string{"later"}) {
			t.Fatalf("unexpected follow lines: %#v", res.Lines)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestStreamWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	writeLog(t, path, "a\nb\nc\n")

	var got []string
	printed, err := logs.Stream(context.Background(), path, logs.StreamOptions{}, func(line string) {
		got = append(got, line)
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !printed || !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("printed=%v lines=%#v", printed, got)
	}
}

func TestStreamEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	writeLog(t, path, "")

	printed, err := logs.Stream(context.Background(), path, logs.StreamOptions{Lines: 10}, nil)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if printed {
		t.Fatal("expected nothing printed")
	}
}

func TestStreamFollowUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	writeLog(t, path, "old\nlast\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		_, err := logs.Stream(ctx, path, logs.StreamOptions{Lines: 1, Follow: true, Wait: 100 * time.Millisecond}, func(line string) {
			lines <- line
		})
		done <- err
	}()

	expect := func(want string) {
		t.Helper()
		select {
		case got := <-lines:
			if got != want {
				t.Fatalf("line = %q, want %q", got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
	expect("last")
	appendLog(t, path, "new\n")
	expect("new")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stream returned %v after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}
