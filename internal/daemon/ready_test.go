package daemon

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"daemonizer/internal/lockfile"
)

func pipe(t *testing.T) (*os.File, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return r, w
}

func TestReadyRoundTrip(t *testing.T) {
	r, w := pipe(t)
	if err := writeReady(w, 321); err != nil {
		t.Fatalf("writeReady: %v", err)
	}
	pid, err := readReady(r, time.Second)
	if err != nil {
		t.Fatalf("readReady: %v", err)
	}
	if pid != 321 {
		t.Fatalf("pid = %d, want 321", pid)
	}
}

func TestFailureKeepsSentinel(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  error
	}{
		{"lock", fmt.Errorf("acquire lock file: lock /x: %w", lockfile.ErrUnavailable), ErrLockUnavailable},
		{"chdir", fmt.Errorf("access /missing: %w: no such file", ErrDirectoryChange), ErrDirectoryChange},
		{"session", fmt.Errorf("setsid: %w", ErrSessionCreate), ErrSessionCreate},
		{"redirect", fmt.Errorf("open stdout target:\n%w", ErrRedirect), ErrRedirect},
		{"signal", fmt.Errorf("install: %w", ErrSignalInstall), ErrSignalInstall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, w := pipe(t)
			if err := writeFailure(w, tt.cause); err != nil {
				t.Fatalf("writeFailure: %v", err)
			}
			_, err := readReady(r, time.Second)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReadReadyTimeout(t *testing.T) {
	r, _ := pipe(t)
	if _, err := readReady(r, 50*time.Millisecond); !errors.Is(err, ErrStartTimeout) {
		t.Fatalf("expected ErrStartTimeout, got %v", err)
	}
}

func TestReadReadyEOF(t *testing.T) {
	r, w := pipe(t)
	_ = w.Close()
	if _, err := readReady(r, time.Second); err == nil {
		t.Fatal("expected error when the daemon exits silently")
	}
}

func TestParseReadyMalformed(t *testing.T) {
	for _, line := range []string{"", "ok", "ok -3", "maybe 12"} {
		if _, err := parseReady(line); err == nil {
			t.Fatalf("expected error for %q", line)
		}
	}
	_, err := parseReady("fail other\tsomething odd")
	if err == nil || err.Error() != "something odd" {
		t.Fatalf("unexpected error %v", err)
	}
}
